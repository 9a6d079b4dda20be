package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/cjk"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for item documents.
//
// Translated text uses English stemming; original text is mostly Japanese
// and is split into CJK bigrams. Flags and the price are indexed for
// filtering only.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	text := func(field, analyzer string, store, vectors bool) {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = analyzer
		fm.Store = store
		fm.IncludeTermVectors = vectors
		docMapping.AddFieldMappingsAt(field, fm)
	}

	text("name", en.AnalyzerName, true, true)
	text("name_original", cjk.AnalyzerName, true, true)
	text("author", en.AnalyzerName, true, false)
	text("author_original", cjk.AnalyzerName, true, false)
	text("tags", en.AnalyzerName, false, false)
	text("tags_original", cjk.AnalyzerName, false, false)
	// Too large to store.
	text("description", en.AnalyzerName, false, false)

	categoryMapping := bleve.NewTextFieldMapping()
	categoryMapping.Analyzer = keyword.Name
	categoryMapping.Store = true
	docMapping.AddFieldMappingsAt("category", categoryMapping)

	idMapping := bleve.NewTextFieldMapping()
	idMapping.Analyzer = keyword.Name
	idMapping.Store = true
	idMapping.Index = true
	docMapping.AddFieldMappingsAt("id", idMapping)

	for _, field := range []string{"is_adult", "is_avatar"} {
		bm := bleve.NewBooleanFieldMapping()
		bm.Store = true
		docMapping.AddFieldMappingsAt(field, bm)
	}

	priceMapping := bleve.NewNumericFieldMapping()
	priceMapping.Store = true
	docMapping.AddFieldMappingsAt("price", priceMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
