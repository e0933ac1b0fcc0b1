package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/hyperjump/banglaqa/internal/indexer"
	"github.com/schollz/progressbar/v3"
)

// newProgressReporter renders embedding progress on w. The bar is created on the first
// callback, once the segment total is known.
func newProgressReporter(w io.Writer) indexer.ProgressFunc {
	var (
		mu  sync.Mutex
		bar *progressbar.ProgressBar
	)
	return func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(w),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("Embedding segments"),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(w)
				}),
			)
		}
		_ = bar.Set(done)
	}
}
