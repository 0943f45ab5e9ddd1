package mapping

import "database/sql"

func ValueToSQLNullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func PointerToSQLNullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func SQLNullStringToPointer(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	v := value.String
	return &v
}

func PointerToSQLNullInt32(value *int) sql.NullInt32 {
	if value == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*value), Valid: true}
}

func SQLNullInt32ToPointer(value sql.NullInt32) *int {
	if !value.Valid {
		return nil
	}
	v := int(value.Int32)
	return &v
}

func Pointer[T any](v T) *T {
	return &v
}

func Value[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}
