package benchmark

import (
	"fmt"
	"strings"
	"testing"

	"github.com/querylab/vectorrank/internal/vsm"
)

var sampleTexts = map[string]string{
	"short": "The quick brown fox jumps over the lazy dog",
	"medium": `The vector space model represents each document as a point in a
        high dimensional space with one axis per vocabulary term. Query and
        document vectors are compared by the cosine of the angle between them,
        which rewards shared rare terms and ignores document length. Term
        weights combine the in-document frequency with the inverse document
        frequency computed over the whole corpus.`,
	"long": strings.Repeat(`Information retrieval systems normalize raw text into
        searchable terms before any scoring happens. Case folding and separator
        splitting turn punctuation and whitespace into token boundaries, and the
        resulting terms index into the corpus vocabulary. Inverse document
        frequency then discounts terms that appear everywhere, so a match on a
        rare word moves a document up the ranking far more than a match on a
        common one. `, 20),
}

func BenchmarkTokenize(b *testing.B) {
	rule := vsm.DefaultRule()
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				tokens := vsm.Tokenize(rule.Normalize(text))
				_ = tokens
			}
		})
	}
}

func BenchmarkTokenizeParallel(b *testing.B) {
	rule := vsm.DefaultRule()
	text := sampleTexts["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			tokens := vsm.Tokenize(rule.Normalize(text))
			_ = tokens
		}
	})
}

func BenchmarkTokenizeVaryingSize(b *testing.B) {
	rule := vsm.DefaultRule()
	sizes := []int{10, 100, 500, 1000, 5000}
	baseWord := "vector space model cosine similarity ranking "
	for _, size := range sizes {
		text := strings.Repeat(baseWord, size/len(baseWord)+1)[:size]
		b.Run(fmt.Sprintf("bytes_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				tokens := vsm.Tokenize(rule.Normalize(text))
				_ = tokens
			}
		})
	}
}
