package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
)

func InsertModel(table string, model any, suffix string) (string, []any, error) {
	cols, vals, err := ColumnsAndValues(model)
	if err != nil {
		return "", nil, err
	}
	return InsertInto(table).
		Columns(cols...).
		Values(vals...).
		Suffix(suffix).
		ToSQL()
}

// ColumnsAndValues reads the db-tagged exported fields of a struct in
// declaration order, descending into embedded column groups.
func ColumnsAndValues(model any) ([]string, []any, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, nil, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("model must be struct")
	}

	cols, vals := appendColumns(nil, nil, value)
	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("model has no db columns")
	}
	return cols, vals, nil
}

// appendColumns flattens untagged embedded structs the way sqlx does when it
// scans, so one column group can be shared by several table models.
func appendColumns(cols []string, vals []any, value reflect.Value) ([]string, []any) {
	typ := value.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := strings.TrimSpace(field.Tag.Get("db"))
		if field.Anonymous && tag == "" && field.Type.Kind() == reflect.Struct {
			cols, vals = appendColumns(cols, vals, value.Field(i))
			continue
		}
		if tag == "" || tag == "-" {
			continue
		}
		col := strings.TrimSpace(strings.Split(tag, ",")[0])
		if col == "" || col == "-" {
			continue
		}
		cols = append(cols, col)
		vals = append(vals, value.Field(i).Interface())
	}
	return cols, vals
}
