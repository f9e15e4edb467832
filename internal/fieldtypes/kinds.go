package fieldtypes

import (
	"fmt"

	"github.com/rebelice/lazyview/internal/models"
)

// Kind enumerates the built-in field types
type Kind int

const (
	KindText Kind = iota
	KindLongText
	KindURL
	KindEmail
	KindPhoneNumber
	KindNumber
	KindRating
	KindAutonumber
	KindBoolean
	KindDate
	KindDuration
	KindSingleSelect
	KindMultipleSelect
)

// Kinds lists every built-in kind
func Kinds() []Kind {
	return []Kind{
		KindText, KindLongText, KindURL, KindEmail, KindPhoneNumber,
		KindNumber, KindRating, KindAutonumber,
		KindBoolean, KindDate, KindDuration,
		KindSingleSelect, KindMultipleSelect,
	}
}

// Name returns the type name used in field definitions
func (k Kind) Name() string {
	switch k {
	case KindText:
		return models.FieldTypeText
	case KindLongText:
		return models.FieldTypeLongText
	case KindURL:
		return models.FieldTypeURL
	case KindEmail:
		return models.FieldTypeEmail
	case KindPhoneNumber:
		return models.FieldTypePhoneNumber
	case KindNumber:
		return models.FieldTypeNumber
	case KindRating:
		return models.FieldTypeRating
	case KindAutonumber:
		return models.FieldTypeAutonumber
	case KindBoolean:
		return models.FieldTypeBoolean
	case KindDate:
		return models.FieldTypeDate
	case KindDuration:
		return models.FieldTypeDuration
	case KindSingleSelect:
		return models.FieldTypeSingleSelect
	case KindMultipleSelect:
		return models.FieldTypeMultipleSelect
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// KindOf resolves a field type name into a built-in kind
func KindOf(name string) (Kind, bool) {
	for _, k := range Kinds() {
		if k.Name() == name {
			return k, true
		}
	}
	return 0, false
}

// Builtin returns the capability table of a built-in kind
func Builtin(k Kind) FieldType {
	switch k {
	case KindText, KindLongText, KindURL, KindEmail, KindPhoneNumber:
		return textType{name: k.Name()}
	case KindNumber:
		return numberType{name: k.Name()}
	case KindRating:
		return numberType{name: k.Name(), zeroIsEmpty: true}
	case KindAutonumber:
		return numberType{name: k.Name(), readOnly: true}
	case KindBoolean:
		return booleanType{}
	case KindDate:
		return dateType{}
	case KindDuration:
		return durationType{}
	case KindSingleSelect:
		return singleSelectType{}
	case KindMultipleSelect:
		return multipleSelectType{}
	default:
		panic(fmt.Sprintf("unknown field kind %d", int(k)))
	}
}

// family groups are used by filter types to declare compatibility
var (
	textFamily    = []string{models.FieldTypeText, models.FieldTypeLongText, models.FieldTypeURL, models.FieldTypeEmail, models.FieldTypePhoneNumber}
	numericFamily = []string{models.FieldTypeNumber, models.FieldTypeRating, models.FieldTypeAutonumber}
)
