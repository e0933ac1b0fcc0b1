// Package e2e runs the whole pipeline, from ingestion to answers, against deterministic providers.
package e2e

import "github.com/hyperjump/banglaqa/internal/models"

// QueryTestCase is a question and what the answer must mention.
type QueryTestCase struct {
	Question     string
	ExpectedPage int
	MustContain  string
	Description  string
}

// Corpus is a small Bengali FAQ document and the questions it can answer.
type Corpus struct {
	Pages     []models.Page
	TestCases []QueryTestCase
}

// Keywords is the vocabulary of the keyword embedder. Each page is about exactly one of them.
var Keywords = []string{"রাজধানী", "ফুল", "ভাষা", "বন্দর", "নদী"}

// BuildCorpus returns the FAQ pages and one test case per topic.
func BuildCorpus() *Corpus {
	return &Corpus{
		Pages: []models.Page{
			{Number: 1, Text: "বাংলাদেশের রাজধানী ঢাকা। ঢাকা দেশের সবচেয়ে বড় শহর এবং প্রশাসনিক কেন্দ্র।"},
			{Number: 2, Text: "বাংলাদেশের জাতীয় ফুল শাপলা। শাপলা সাধারণত পুকুর ও বিলে জন্মায়।"},
			{Number: 3, Text: "বাংলাদেশের রাষ্ট্রভাষা বাংলা। ২১শে ফেব্রুয়ারি আন্তর্জাতিক মাতৃভাষা দিবস।"},
			{Number: 4, Text: "চট্টগ্রাম বাংলাদেশের প্রধান সমুদ্র বন্দর।"},
			{Number: 5, Text: "পদ্মা, মেঘনা ও যমুনা বাংলাদেশের প্রধান নদী।"},
		},
		TestCases: []QueryTestCase{
			{"বাংলাদেশের রাজধানীর নাম কি?", 1, "ঢাকা", "capital"},
			{"বাংলাদেশের জাতীয় ফুল কি?", 2, "শাপলা", "national flower"},
			{"আন্তর্জাতিক মাতৃভাষা দিবস কবে?", 3, "মাতৃভাষা দিবস", "language day"},
			{"দেশের প্রধান সমুদ্র বন্দর কোনটি?", 4, "চট্টগ্রাম", "sea port"},
			{"বাংলাদেশের প্রধান নদীগুলো কি কি?", 5, "পদ্মা", "rivers"},
		},
	}
}
