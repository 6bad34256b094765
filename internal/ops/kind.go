package ops

import "fmt"

// Kind enumerates the operation variants.
type Kind int

// Operation kinds.
const (
	KindCreateTable Kind = iota + 1
	KindDropTable
	KindRenameTable
	KindAddColumn
	KindDropColumn
	KindAlterColumn
	KindAddIndex
	KindDropIndex
	KindAddConstraint
	KindDropConstraint
	KindExecuteSQL
)

//nolint:gochecknoglobals // read-only lookup table
var kindTags = map[Kind]string{
	KindCreateTable:    "create_table",
	KindDropTable:      "drop_table",
	KindRenameTable:    "rename_table",
	KindAddColumn:      "add_column",
	KindDropColumn:     "drop_column",
	KindAlterColumn:    "alter_column",
	KindAddIndex:       "add_index",
	KindDropIndex:      "drop_index",
	KindAddConstraint:  "add_constraint",
	KindDropConstraint: "drop_constraint",
	KindExecuteSQL:     "execute_sql",
}

// String returns the record tag of the kind, e.g. "add_column".
func (k Kind) String() string {
	if tag, ok := kindTags[k]; ok {
		return tag
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps a record tag back to its Kind.
func ParseKind(tag string) (Kind, error) {
	for k, t := range kindTags {
		if t == tag {
			return k, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, tag)
}

func newOperation(k Kind) (Operation, error) {
	switch k {
	case KindCreateTable:
		return &CreateTable{}, nil
	case KindDropTable:
		return &DropTable{}, nil
	case KindRenameTable:
		return &RenameTable{}, nil
	case KindAddColumn:
		return &AddColumn{}, nil
	case KindDropColumn:
		return &DropColumn{}, nil
	case KindAlterColumn:
		return &AlterColumn{}, nil
	case KindAddIndex:
		return &AddIndex{}, nil
	case KindDropIndex:
		return &DropIndex{}, nil
	case KindAddConstraint:
		return &AddConstraint{}, nil
	case KindDropConstraint:
		return &DropConstraint{}, nil
	case KindExecuteSQL:
		return &ExecuteSQL{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, k)
	}
}
