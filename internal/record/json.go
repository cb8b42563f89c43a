package record

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// DecodeJSONLines reads one JSON object per line into a batch with the
// given schema. Blank lines are skipped. A missing float64 field decodes
// as NaN, a missing int64 field as 0 and a missing string as "".
func DecodeJSONLines(schema *Schema, r io.Reader) (*Batch, error) {
	cols := make([]any, schema.Len())
	for i, f := range schema.fields {
		cols[i] = makeColumn(f.Kind, 0)
	}

	paths := make([]string, schema.Len())
	for i, f := range schema.fields {
		paths[i] = escapePath(f.Name)
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		if !gjson.ValidBytes(raw) {
			return nil, fmt.Errorf("line %d: invalid JSON", line)
		}

		results := gjson.GetManyBytes(raw, paths...)
		for i, f := range schema.fields {
			res := results[i]
			switch f.Kind {
			case Float64:
				v := math.NaN()
				if res.Exists() {
					v = res.Float()
				}
				cols[i] = append(cols[i].([]float64), v)
			case Int64:
				cols[i] = append(cols[i].([]int64), res.Int())
			case String:
				cols[i] = append(cols[i].([]string), res.String())
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read json lines: %w", err)
	}

	return NewBatch(schema, cols...)
}

// EncodeJSONLines writes every row of b as one JSON object per line, with
// keys in schema order. NaN values are written as null.
func EncodeJSONLines(w io.Writer, b *Batch) error {
	bw := bufio.NewWriter(w)
	for i := 0; i < b.n; i++ {
		row, err := encodeRow(b, i)
		if err != nil {
			return fmt.Errorf("encode row %d: %w", i, err)
		}
		if _, err := bw.Write(row); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func encodeRow(b *Batch, i int) ([]byte, error) {
	row := []byte("{}")
	var err error
	for j, f := range b.schema.fields {
		path := escapePath(f.Name)
		switch col := b.cols[j].(type) {
		case []float64:
			v := col[i]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				row, err = sjson.SetRawBytes(row, path, []byte("null"))
			} else {
				row, err = sjson.SetBytes(row, path, v)
			}
		case []int64:
			row, err = sjson.SetBytes(row, path, col[i])
		case []string:
			row, err = sjson.SetBytes(row, path, col[i])
		}
		if err != nil {
			return nil, err
		}
	}
	return row, nil
}

var pathEscaper = strings.NewReplacer(
	".", `\.`,
	"*", `\*`,
	"?", `\?`,
	"|", `\|`,
	"#", `\#`,
	"@", `\@`,
)

// escapePath makes a field name usable as a literal gjson/sjson key.
func escapePath(name string) string {
	return pathEscaper.Replace(name)
}
