// Package datasets loads text corpora from parquet files, the on-disk
// format HuggingFace datasets export to. The loaded documents feed directly
// into the hf transformers' Fit and Transform.
package datasets

import (
	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// textRow maps the conventional "text" column of a dataset shard.
type textRow struct {
	Text string `parquet:"text"`
}

// LoadText reads the "text" column of a parquet file into a document slice.
func LoadText(path string) ([]string, error) {
	rows, err := parquet.ReadFile[textRow](path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read parquet dataset %q", path)
	}
	docs := make([]string, len(rows))
	for i, row := range rows {
		docs[i] = row.Text
	}
	klog.V(1).Infof("loaded %d documents from %q", len(docs), path)
	return docs, nil
}

// LoadTextFiles reads several parquet shards and concatenates their
// documents in argument order.
func LoadTextFiles(paths ...string) ([]string, error) {
	var docs []string
	for _, path := range paths {
		shard, err := LoadText(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, shard...)
	}
	return docs, nil
}
