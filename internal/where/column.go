package where

import (
	"fmt"

	"github.com/roach88/zeitgeist/internal/filter"
	"github.com/roach88/zeitgeist/internal/symbol"
)

// Column is an event_view column holding a symbol id.
type Column struct {
	Field filter.Field
	View  string      // column name in event_view
	Kind  symbol.Kind // symbol table the id points into
}

var columns = map[filter.Field]Column{
	filter.Interpretation:        {filter.Interpretation, "interpretation", symbol.Interpretation},
	filter.Manifestation:         {filter.Manifestation, "manifestation", symbol.Manifestation},
	filter.Actor:                 {filter.Actor, "actor", symbol.Actor},
	filter.Origin:                {filter.Origin, "origin", symbol.URI},
	filter.SubjectURI:            {filter.SubjectURI, "subj_id", symbol.URI},
	filter.SubjectCurrentURI:     {filter.SubjectCurrentURI, "subj_id_current", symbol.URI},
	filter.SubjectInterpretation: {filter.SubjectInterpretation, "subj_interpretation", symbol.Interpretation},
	filter.SubjectManifestation:  {filter.SubjectManifestation, "subj_manifestation", symbol.Manifestation},
	filter.SubjectOrigin:         {filter.SubjectOrigin, "subj_origin", symbol.URI},
	filter.SubjectMimetype:       {filter.SubjectMimetype, "subj_mimetype", symbol.Mimetype},
	filter.SubjectText:           {filter.SubjectText, "subj_text", symbol.Text},
	filter.SubjectStorage:        {filter.SubjectStorage, "subj_storage", symbol.Storage},
}

// ColumnFor returns the view column for a filter field.
func ColumnFor(f filter.Field) (Column, error) {
	c, ok := columns[f]
	if !ok {
		return Column{}, fmt.Errorf("no column for field %s", f)
	}
	return c, nil
}

// MustColumn is like ColumnFor but panics on an unknown field.
func MustColumn(f filter.Field) Column {
	c, err := ColumnFor(f)
	if err != nil {
		panic(err)
	}
	return c
}
