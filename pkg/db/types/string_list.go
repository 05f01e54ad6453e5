package dbtypes

import (
	"database/sql/driver"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// StringList stores an ordered list of strings as a Postgres text[] column.
// Other dialects (sqlite in tests) keep the same array literal in a text column.
type StringList []string

func (l *StringList) Scan(src any) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return err
	}
	*l = StringList(arr)
	return nil
}

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "{}", nil
	}
	return pq.StringArray(l).Value()
}

// GormDataType implements schema.GormDataTypeInterface.
func (StringList) GormDataType() string {
	return "text[]"
}

// GormDBDataType implements migrator.GormDBDataTypeInterface.
func (StringList) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db != nil && db.Dialector != nil && db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}
