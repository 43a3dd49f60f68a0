package yachtsql

import (
	"encoding/json"
	"strconv"
	"time"
)

// QueryResult is the terminal output of a query pipeline: a Schema plus the
// materialized rows and execution statistics, generalizing the
// paginated QueryResult (TotalRecords/CurrentPage/HasNext) into a single
// complete result set - pagination is LIMIT/OFFSET pushed into the
// physical plan, not a response-envelope concern.
type QueryResult struct {
	Schema        Schema        `json:"schema"`
	Rows          []Record      `json:"-"`
	RowCount      int64         `json:"row_count"`
	ExecutionTime time.Duration `json:"execution_time"`
	BytesScanned  int64         `json:"bytes_scanned,omitempty"`
}

// ResultFormat selects how QueryResult.Rows are rendered to the client.
type ResultFormat string

const (
	FormatRowOfJSON  ResultFormat = "row_of_json"  // one JSON object per row
	FormatBigQueryV2 ResultFormat = "bigquery_v2"  // BigQuery jobs.getQueryResults-style {schema, rows: [{f: [{v: ...}]}]}
)

// bqCell and bqRow mirror BigQuery's {"f": [{"v": ...}]} row encoding.
type bqCell struct {
	V any `json:"v"`
}

type bqRow struct {
	F []bqCell `json:"f"`
}

// bqFieldSchema mirrors BigQuery's {"name", "type", "mode"} field descriptor.
type bqFieldSchema struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Mode string `json:"mode"`
}

// bqResponse is the top-level BigQuery-shaped response envelope.
type bqResponse struct {
	Schema struct {
		Fields []bqFieldSchema `json:"fields"`
	} `json:"schema"`
	Rows     []bqRow `json:"rows"`
	TotalRows string `json:"totalRows"`
}

// Render encodes the result in the requested ResultFormat.
func (r QueryResult) Render(format ResultFormat) ([]byte, error) {
	switch format {
	case FormatBigQueryV2:
		return r.renderBigQuery()
	default:
		return r.renderRowOfJSON()
	}
}

func (r QueryResult) renderRowOfJSON() ([]byte, error) {
	out := make([]map[string]any, 0, len(r.Rows))
	for _, row := range r.Rows {
		obj := make(map[string]any, len(r.Schema.Fields))
		for i, f := range r.Schema.Fields {
			obj[f.Name] = valueToJSON(row.Get(i))
		}
		out = append(out, obj)
	}
	return json.Marshal(out)
}

func (r QueryResult) renderBigQuery() ([]byte, error) {
	var resp bqResponse
	for _, f := range r.Schema.Fields {
		mode := "NULLABLE"
		if f.Repeated {
			mode = "REPEATED"
		} else if !f.Nullable {
			mode = "REQUIRED"
		}
		resp.Schema.Fields = append(resp.Schema.Fields, bqFieldSchema{
			Name: f.Name,
			Type: bqTypeName(f.Kind),
			Mode: mode,
		})
	}
	for _, row := range r.Rows {
		var bq bqRow
		for i := range r.Schema.Fields {
			bq.F = append(bq.F, bqCell{V: valueToJSON(row.Get(i))})
		}
		resp.Rows = append(resp.Rows, bq)
	}
	resp.TotalRows = strconv.Itoa(len(r.Rows))
	return json.Marshal(resp)
}

func bqTypeName(k ValueKind) string {
	switch k {
	case KindInt64:
		return "INTEGER"
	case KindFloat64:
		return "FLOAT"
	case KindNumeric:
		return "NUMERIC"
	case KindBool:
		return "BOOLEAN"
	case KindString:
		return "STRING"
	case KindBytes:
		return "BYTES"
	case KindDate:
		return "DATE"
	case KindTime:
		return "TIME"
	case KindTimestamp:
		return "TIMESTAMP"
	case KindStruct:
		return "RECORD"
	case KindArray:
		return "RECORD"
	default:
		return "STRING"
	}
}

func valueToJSON(v Value) any {
	if v.IsNull() {
		return nil
	}
	switch v.Kind {
	case KindBool:
		b, _ := v.AsBool()
		return b
	case KindInt64:
		i, _ := v.AsInt64()
		return i
	case KindFloat64:
		f, _ := v.AsFloat64()
		return f
	case KindNumeric:
		n, _ := v.AsNumeric()
		return n.Float64()
	case KindString:
		s, _ := v.AsString()
		return s
	case KindDate, KindTime, KindTimestamp:
		t, _ := v.AsTime()
		return t.Format(time.RFC3339)
	case KindUUID:
		u, _ := v.AsUUID()
		return u.String()
	case KindArray:
		arr, _ := v.AsArray()
		out := make([]any, len(arr))
		for i, e := range arr {
			out[i] = valueToJSON(e)
		}
		return out
	case KindStruct:
		sv, _ := v.AsStruct()
		obj := make(map[string]any, len(sv.Fields))
		for i, f := range sv.Fields {
			obj[f] = valueToJSON(sv.Values[i])
		}
		return obj
	case KindJSON:
		j, _ := v.AsJSON()
		return j
	default:
		return v.String()
	}
}
