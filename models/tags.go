package models

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"gorm.io/gorm/schema"
)

// tagTextSeparator joins tags in the search column. Tags never contain it.
const tagTextSeparator = "\n"

func init() {
	schema.RegisterSerializer("tags", TagsSerializer{})
}

// EncodeTags renders tags as a JSON array without HTML escaping, so "R&D" is stored as written.
func EncodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(tags); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// TagSearchText is the plain text tag search runs against: one tag per line, no JSON syntax.
func TagSearchText(tags []string) string {
	return strings.Join(tags, tagTextSeparator)
}

// TagsSerializer stores []string columns with EncodeTags.
type TagsSerializer struct{}

func (TagsSerializer) Scan(ctx context.Context, field *schema.Field, dst reflect.Value, dbValue interface{}) error {
	tags := []string{}
	var raw []byte
	switch v := dbValue.(type) {
	case nil:
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported tags value: %#v", dbValue)
	}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &tags); err != nil {
			return fmt.Errorf("decode tags: %w", err)
		}
	}
	field.ReflectValueOf(ctx, dst).Set(reflect.ValueOf(tags))
	return nil
}

func (TagsSerializer) Value(_ context.Context, _ *schema.Field, _ reflect.Value, fieldValue interface{}) (interface{}, error) {
	tags, _ := fieldValue.([]string)
	return EncodeTags(tags)
}
