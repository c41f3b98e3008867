package pricing

import (
	"fmt"

	"github.com/freshbox/freshbox-backend/pkg/enums"
	pkgerrors "github.com/freshbox/freshbox-backend/pkg/errors"
)

// AddonLimits are a product's selection caps. Zero means unlimited.
type AddonLimits struct {
	ProductName string
	MaxFree     int
	MaxPaid     int
}

// CountAddons partitions the selection by derived add-on type.
func CountAddons(addons []Addon) (free, paid int) {
	for _, addon := range addons {
		if enums.AddonTypeForPrice(addon.PricePence) == enums.AddonTypePaid {
			paid++
		} else {
			free++
		}
	}
	return free, paid
}

// ValidateAddonLimits rejects selections that exceed a non-zero cap.
func ValidateAddonLimits(limits AddonLimits, addons []Addon) error {
	free, paid := CountAddons(addons)

	if limits.MaxFree != 0 && free > limits.MaxFree {
		return limitError(limits.ProductName, "free", limits.MaxFree, free)
	}
	if limits.MaxPaid != 0 && paid > limits.MaxPaid {
		return limitError(limits.ProductName, "paid", limits.MaxPaid, paid)
	}
	return nil
}

func limitError(product, kind string, max, selected int) error {
	msg := fmt.Sprintf("%q allows max %d %s addon(s), but %d selected", product, max, kind, selected)
	return pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(map[string]any{
		"product":  product,
		"type":     kind,
		"max":      max,
		"selected": selected,
	})
}
