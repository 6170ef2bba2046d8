package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"bt-catalog/internal/bt"
)

// listSeparator joins list property members (ASCII record separator).
const listSeparator = "\x1e"

// property loads the raw value of name. SQLite keeps the storage class
// of each value, so value is an int64, a string, a []byte, or nil.
func (s *SQLiteDatabase) property(name string) (value any, found bool, err error) {
	row, err := s.queries.queryRow(qGetProperty, name)
	if err != nil {
		return nil, false, err
	}
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading property %s: %w", name, err)
	}
	return value, true, nil
}

func (s *SQLiteDatabase) setProperty(name string, value any) error {
	if name == "" {
		return fmt.Errorf("%w: property name is empty", bt.ErrInvalidArgument)
	}
	if _, err := s.queries.exec(qSetProperty, oneRow, name, value); err != nil {
		return fmt.Errorf("setting property %s: %w", name, err)
	}
	return nil
}

func (s *SQLiteDatabase) GetIntProperty(name string) (int64, bool, error) {
	value, found, err := s.property(name)
	if err != nil || !found {
		return 0, found, err
	}
	switch v := value.(type) {
	case int64:
		return v, true, nil
	case string:
		return parseIntProperty(name, v)
	case []byte:
		return parseIntProperty(name, string(v))
	default:
		return 0, true, fmt.Errorf("%w: property %s holds %T, not an integer", bt.ErrInvalidArgument, name, value)
	}
}

func parseIntProperty(name, raw string) (int64, bool, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, true, fmt.Errorf("%w: property %s is not an integer: %v", bt.ErrInvalidArgument, name, err)
	}
	return n, true, nil
}

func (s *SQLiteDatabase) SetIntProperty(name string, value int64) error {
	return s.setProperty(name, value)
}

func (s *SQLiteDatabase) GetStringProperty(name string) (string, bool, error) {
	value, found, err := s.property(name)
	if err != nil || !found {
		return "", found, err
	}
	switch v := value.(type) {
	case string:
		return v, true, nil
	case []byte:
		return string(v), true, nil
	case int64:
		return strconv.FormatInt(v, 10), true, nil
	case nil:
		return "", true, nil
	default:
		return "", true, fmt.Errorf("%w: property %s holds %T, not a string", bt.ErrInvalidArgument, name, value)
	}
}

func (s *SQLiteDatabase) SetStringProperty(name, value string) error {
	return s.setProperty(name, value)
}

// GetListProperty returns an empty list for a stored empty string.
func (s *SQLiteDatabase) GetListProperty(name string) ([]string, bool, error) {
	raw, found, err := s.GetStringProperty(name)
	if err != nil || !found {
		return nil, found, err
	}
	if raw == "" {
		return []string{}, true, nil
	}
	return strings.Split(raw, listSeparator), true, nil
}

// SetListProperty rejects members containing the separator, and a list
// holding only the empty string, neither of which would read back intact.
func (s *SQLiteDatabase) SetListProperty(name string, values []string) error {
	for _, v := range values {
		if strings.Contains(v, listSeparator) {
			return fmt.Errorf("%w: list property %s member %q contains the separator", bt.ErrInvalidArgument, name, v)
		}
	}
	if len(values) == 1 && values[0] == "" {
		return fmt.Errorf("%w: list property %s cannot hold a single empty member", bt.ErrInvalidArgument, name)
	}
	return s.setProperty(name, strings.Join(values, listSeparator))
}

func (s *SQLiteDatabase) DeleteProperty(name string) error {
	if _, err := s.queries.exec(qDeleteProperty, anyRows, name); err != nil {
		return fmt.Errorf("deleting property %s: %w", name, err)
	}
	return nil
}
