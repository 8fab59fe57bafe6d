package hf

import (
	"iter"
	"reflect"

	"github.com/pkg/errors"
)

// collectDocuments materializes the supported corpus shapes into a string
// slice. Accepted: []string, [][]byte, iter.Seq[string] (or any
// func(func(string) bool)), and any slice or array whose element kind is
// string. A bare string is rejected: it is iterable character by character
// and would silently produce a degenerate vocabulary.
func collectDocuments(raw any) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return nil, errors.New("iterable over raw text documents expected, nil received")
	case string:
		return nil, errors.New("iterable over raw text documents expected, string object received")
	case []string:
		return v, nil
	case [][]byte:
		docs := make([]string, len(v))
		for i, b := range v {
			docs[i] = string(b)
		}
		return docs, nil
	case iter.Seq[string]:
		return drainSeq(v), nil
	case func(func(string) bool):
		return drainSeq(v), nil
	}

	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() != reflect.String {
			return nil, errors.Errorf("iterable over raw text documents expected, %s of %s received",
				rv.Kind(), rv.Type().Elem())
		}
		docs := make([]string, rv.Len())
		for i := range docs {
			docs[i] = rv.Index(i).String()
		}
		return docs, nil
	default:
		return nil, errors.Errorf("iterable over raw text documents expected, %T received", raw)
	}
}

func drainSeq(seq iter.Seq[string]) []string {
	var docs []string
	for doc := range seq {
		docs = append(docs, doc)
	}
	return docs
}
