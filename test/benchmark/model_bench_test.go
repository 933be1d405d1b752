// Package benchmark contains Go benchmarks for model construction and
// query execution, measuring throughput and allocation behaviour.
package benchmark

import (
	"fmt"
	"testing"

	"github.com/querylab/vectorrank/internal/vsm"
)

var corpusTerms = []string{
	"vector", "space", "model", "cosine", "similarity", "term",
	"frequency", "inverse", "document", "ranking", "corpus", "query",
	"token", "weight", "sparse", "norm",
}

// syntheticCorpus produces n documents with overlapping vocabulary so
// query vectors match a realistic fraction of the collection.
func syntheticCorpus(n int) []vsm.Document {
	docs := make([]vsm.Document, n)
	for i := 0; i < n; i++ {
		text := fmt.Sprintf("document %d covers %s %s %s and touches on %s %s in passing",
			i,
			corpusTerms[i%len(corpusTerms)],
			corpusTerms[(i+3)%len(corpusTerms)],
			corpusTerms[(i+7)%len(corpusTerms)],
			corpusTerms[(i+11)%len(corpusTerms)],
			corpusTerms[(i+13)%len(corpusTerms)])
		docs[i] = vsm.StringDocument(text)
	}
	return docs
}

// BenchmarkBuild measures full model construction at various corpus
// sizes, including the parallel scan pass.
func BenchmarkBuild(b *testing.B) {
	sizes := []int{100, 1000, 10000}
	for _, n := range sizes {
		docs := syntheticCorpus(n)
		b.Run(fmt.Sprintf("docs_%d", n), func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				model, err := vsm.Build(docs, vsm.DefaultRule(), vsm.Options{})
				if err != nil {
					b.Fatal(err)
				}
				_ = model
			}
		})
	}
}

// BenchmarkBuildSequential measures the single-worker scan for
// comparison against the default parallel pass.
func BenchmarkBuildSequential(b *testing.B) {
	docs := syntheticCorpus(1000)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		model, err := vsm.Build(docs, vsm.DefaultRule(), vsm.Options{Workers: 1})
		if err != nil {
			b.Fatal(err)
		}
		_ = model
	}
}

// BenchmarkQuery measures single-query latency against corpora of
// varying size. Every query scores the full collection.
func BenchmarkQuery(b *testing.B) {
	sizes := []int{100, 1000, 10000}
	for _, n := range sizes {
		model, err := vsm.Build(syntheticCorpus(n), vsm.DefaultRule(), vsm.Options{})
		if err != nil {
			b.Fatal(err)
		}
		b.Run(fmt.Sprintf("docs_%d", n), func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				results := model.Query(corpusTerms[i%len(corpusTerms)] + " " + corpusTerms[(i+5)%len(corpusTerms)])
				_ = results
			}
		})
	}
}

// BenchmarkQueryParallel measures concurrent query throughput over a
// shared model, the read path a serving process exercises.
func BenchmarkQueryParallel(b *testing.B) {
	model, err := vsm.Build(syntheticCorpus(10000), vsm.DefaultRule(), vsm.Options{})
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			results := model.Query(corpusTerms[i%len(corpusTerms)])
			_ = results
			i++
		}
	})
}

// BenchmarkQuerySublinear compares the damped TF scheme against the
// default raw counts on the same corpus.
func BenchmarkQuerySublinear(b *testing.B) {
	opts := vsm.Options{Weighting: vsm.Weighting{TF: vsm.TFSublinear, IDF: vsm.IDFSmoothed}}
	model, err := vsm.Build(syntheticCorpus(1000), vsm.DefaultRule(), opts)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		results := model.Query("vector similarity ranking")
		_ = results
	}
}
