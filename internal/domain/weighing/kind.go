package weighing

import (
	"fmt"

	"registracion/internal/core/apperror"
)

// Kind is the registration variant. The store only knows the numeric code
// (Sobrante column); serialized and unserialized scrap share code 2.
type Kind int

const (
	KindNormal Kind = iota
	KindSurplus
	KindScrapSerialized
	KindScrapUnserialized
)

// Store codes for the Sobrante column.
const (
	CodeNormal  = 0
	CodeSurplus = 1
	CodeScrap   = 2
)

// Unserialized scrap never touches the scrap pool; it is booked against
// this well-known lot.
const (
	UnserializedScrapLot         = "EBCEC003-0D54-49C7-9423-7E41B3D11AE7"
	UnserializedScrapDestination = "Scrap No Seriado"
)

// lotSource says where the destination lot of a registration comes from.
type lotSource int

const (
	lotFromRequest lotSource = iota
	lotFromLineContext
	lotFromScrapPool
	lotSentinel
)

// Rules is the per-kind behavior table.
type Rules struct {
	RequiresBundleNumber bool
	AllowsQuality        bool
	WritesBundles        bool
	lots                 lotSource
}

var kindRules = map[Kind]Rules{
	KindNormal:            {RequiresBundleNumber: true, AllowsQuality: true, WritesBundles: true, lots: lotFromRequest},
	KindSurplus:           {RequiresBundleNumber: true, AllowsQuality: true, WritesBundles: true, lots: lotFromLineContext},
	KindScrapSerialized:   {RequiresBundleNumber: false, AllowsQuality: true, WritesBundles: true, lots: lotFromScrapPool},
	KindScrapUnserialized: {RequiresBundleNumber: false, AllowsQuality: false, WritesBundles: false, lots: lotSentinel},
}

// Rules returns the behavior table entry for k.
func (k Kind) Rules() Rules {
	return kindRules[k]
}

// Code returns the numeric value stored in the Sobrante column.
func (k Kind) Code() int {
	switch k {
	case KindSurplus:
		return CodeSurplus
	case KindScrapSerialized, KindScrapUnserialized:
		return CodeScrap
	default:
		return CodeNormal
	}
}

// IsScrap reports whether k is one of the scrap variants.
func (k Kind) IsScrap() bool {
	return k == KindScrapSerialized || k == KindScrapUnserialized
}

func (k Kind) String() string {
	switch k {
	case KindNormal:
		return "normal"
	case KindSurplus:
		return "surplus"
	case KindScrapSerialized:
		return "scrap_serialized"
	case KindScrapUnserialized:
		return "scrap_unserialized"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// KindFromCode maps the wire value of "sobrante" to a Kind. Scrap needs the
// extra flag to choose between the serialized and unserialized variants.
func KindFromCode(code int, unserializedScrap bool) (Kind, error) {
	switch code {
	case CodeNormal:
		return KindNormal, nil
	case CodeSurplus:
		return KindSurplus, nil
	case CodeScrap:
		if unserializedScrap {
			return KindScrapUnserialized, nil
		}
		return KindScrapSerialized, nil
	default:
		return 0, apperror.NewValidation("sobrante must be 0, 1 or 2").WithDetail("sobrante", code)
	}
}

// KindOfLine recovers the variant of a stored line from its code and lot.
func KindOfLine(code int, lotID string) Kind {
	switch code {
	case CodeSurplus:
		return KindSurplus
	case CodeScrap:
		if isSentinelLot(lotID) {
			return KindScrapUnserialized
		}
		return KindScrapSerialized
	default:
		return KindNormal
	}
}
