package qa

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hyperjump/banglaqa/internal/embedding"
	"github.com/hyperjump/banglaqa/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockGenerator is a mock for llm.Generator.
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// MockRetriever is a mock for Retriever.
type MockRetriever struct {
	mock.Mock
}

func (m *MockRetriever) Query(ctx context.Context, space models.EmbeddingSpace, query []float32, k int) ([]models.ScoredSegment, error) {
	args := m.Called(ctx, space, query, k)
	hits, _ := args.Get(0).([]models.ScoredSegment)
	return hits, args.Error(1)
}

func dhakaHits() []models.ScoredSegment {
	return []models.ScoredSegment{
		{Segment: &models.Segment{ID: "s1", Page: 1, Content: "বাংলাদেশের রাজধানী ঢাকা।"}, Score: 0.9},
		{Segment: &models.Segment{ID: "s2", Page: 2, Content: "চট্টগ্রাম একটি বন্দর নগরী।"}, Score: 0.4},
	}
}

func isAnswerPrompt(p string) bool {
	return strings.HasPrefix(p, "You are a helpful assistant")
}

func isTranslationPrompt(p string) bool {
	return strings.HasPrefix(p, "Please translate this answer to Bengali: ")
}

func TestAnswerer_BengaliAnswer(t *testing.T) {
	ret := new(MockRetriever)
	ret.On("Query", mock.Anything, mock.Anything, mock.Anything, 4).Return(dhakaHits(), nil)
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return isAnswerPrompt(p) && strings.Contains(p, "বাংলাদেশের রাজধানী ঢাকা।") &&
			strings.Contains(p, "বাংলাদেশের রাজধানীর নাম কি?")
	})).Return("বাংলাদেশের রাজধানী ঢাকা।", nil).Once()

	a := NewAnswerer(embedding.NewMockEmbedder(8), ret, gen)
	res := a.Ask(context.Background(), "  বাংলাদেশের রাজধানীর নাম কি?  ")

	require.NotNil(t, res)
	assert.NoError(t, res.Err)
	assert.Equal(t, "বাংলাদেশের রাজধানী ঢাকা।", res.Answer)
	assert.False(t, res.Repaired)
	assert.Len(t, res.Sources, 2)
	gen.AssertNumberOfCalls(t, "Generate", 1)
}

func TestAnswerer_RepairsExactlyOnce(t *testing.T) {
	ret := new(MockRetriever)
	ret.On("Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(dhakaHits(), nil)
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.MatchedBy(isAnswerPrompt)).Return("The capital is Dhaka.", nil).Once()
	gen.On("Generate", mock.Anything, "Please translate this answer to Bengali: The capital is Dhaka.").
		Return("Still English.", nil).Once()

	a := NewAnswerer(embedding.NewMockEmbedder(8), ret, gen)
	res := a.Ask(context.Background(), "রাজধানী?")

	assert.NoError(t, res.Err)
	assert.True(t, res.Repaired)
	// The repaired answer is returned as is, even when it is still not Bengali.
	assert.Equal(t, "Still English.", res.Answer)
	gen.AssertNumberOfCalls(t, "Generate", 2)
	gen.AssertExpectations(t)
}

func TestAnswerer_RepairToBengali(t *testing.T) {
	ret := new(MockRetriever)
	ret.On("Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(dhakaHits(), nil)
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.MatchedBy(isAnswerPrompt)).Return("Dhaka", nil).Once()
	gen.On("Generate", mock.Anything, mock.MatchedBy(isTranslationPrompt)).Return("ঢাকা", nil).Once()

	res := NewAnswerer(embedding.NewMockEmbedder(8), ret, gen).Ask(context.Background(), "রাজধানী?")
	assert.Equal(t, "ঢাকা", res.Answer)
	assert.True(t, res.Repaired)
}

func TestAnswerer_GenerationFailure(t *testing.T) {
	ret := new(MockRetriever)
	ret.On("Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(dhakaHits(), nil)
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).
		Return("", models.Wrap(models.ErrGenerationProvider, errors.New("timeout"), "generation failed"))

	var reported []error
	a := NewAnswerer(embedding.NewMockEmbedder(8), ret, gen,
		WithErrorReporter(func(err error) { reported = append(reported, err) }))
	res := a.Ask(context.Background(), "রাজধানী?")

	assert.Equal(t, ErrorAnswer, res.Answer)
	assert.ErrorIs(t, res.Err, models.ErrGenerationProvider)
	assert.Len(t, reported, 1)
}

func TestAnswerer_RepairFailure(t *testing.T) {
	ret := new(MockRetriever)
	ret.On("Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(dhakaHits(), nil)
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.MatchedBy(isAnswerPrompt)).Return("Dhaka", nil).Once()
	gen.On("Generate", mock.Anything, mock.MatchedBy(isTranslationPrompt)).Return("", errors.New("rate limited")).Once()

	res := NewAnswerer(embedding.NewMockEmbedder(8), ret, gen).Ask(context.Background(), "রাজধানী?")
	assert.Equal(t, ErrorAnswer, res.Answer)
	assert.False(t, res.Repaired)
	assert.Error(t, res.Err)
}

func TestAnswerer_RetrievalFailure(t *testing.T) {
	ret := new(MockRetriever)
	ret.On("Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, models.ErrProviderMismatch)
	gen := new(MockGenerator)

	a := NewAnswerer(embedding.NewMockEmbedder(8), ret, gen)
	assert.Equal(t, ErrorAnswer, a.Answer(context.Background(), "রাজধানী?"))
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestAnswerer_EmptyQuestion(t *testing.T) {
	ret := new(MockRetriever)
	gen := new(MockGenerator)
	a := NewAnswerer(embedding.NewMockEmbedder(8), ret, gen)

	for _, q := range []string{"", "   ", "\n\t"} {
		res := a.Ask(context.Background(), q)
		assert.Equal(t, EmptyQuestionAnswer, res.Answer)
		assert.ErrorIs(t, res.Err, models.ErrEmptyQuestion)
	}
	ret.AssertNotCalled(t, "Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestAnswerer_TopK(t *testing.T) {
	ret := new(MockRetriever)
	ret.On("Query", mock.Anything, mock.Anything, mock.Anything, 2).Return(dhakaHits()[:1], nil).Once()
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return("ঢাকা", nil)

	res := NewAnswerer(embedding.NewMockEmbedder(8), ret, gen, WithTopK(2)).Ask(context.Background(), "রাজধানী?")
	assert.Len(t, res.Sources, 1)
	ret.AssertExpectations(t)
}

func TestAnswerer_UsesEmbedderSpace(t *testing.T) {
	emb := embedding.NewMockEmbedder(8)
	ret := new(MockRetriever)
	ret.On("Query", mock.Anything, emb.Space(), mock.MatchedBy(func(v []float32) bool { return len(v) == 8 }), 4).
		Return(nil, nil).Once()
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return(DontKnowAnswer, nil)

	res := NewAnswerer(emb, ret, gen).Ask(context.Background(), "রাজধানী?")
	assert.Equal(t, DontKnowAnswer, res.Answer)
	assert.Empty(t, res.Sources)
	ret.AssertExpectations(t)
}
