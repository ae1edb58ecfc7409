package pricing

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"aurora/internal/adapters/docstore"
	domain "aurora/internal/domain/pricing"
	"aurora/internal/domain/service"
)

// decodeTier maps a stored document onto a Tier. Backends disagree on
// number and time representations, so each field accepts every shape the
// gateways produce.
func decodeTier(doc docstore.Document) (domain.Tier, error) {
	f := doc.Fields
	price, err := asInt(f[fieldPrice])
	if err != nil {
		return domain.Tier{}, fmt.Errorf("tier %s price: %w", doc.ID, err)
	}
	features, err := asStrings(f[fieldFeatures])
	if err != nil {
		return domain.Tier{}, fmt.Errorf("tier %s features: %w", doc.ID, err)
	}
	created, err := asTime(f[fieldCreatedAt])
	if err != nil {
		return domain.Tier{}, fmt.Errorf("tier %s createdAt: %w", doc.ID, err)
	}
	updated, err := asTime(f[fieldUpdatedAt])
	if err != nil {
		return domain.Tier{}, fmt.Errorf("tier %s updatedAt: %w", doc.ID, err)
	}
	popular, _ := f[fieldPopular].(bool)
	return domain.Tier{
		ID:          doc.ID,
		Name:        asString(f[fieldName]),
		Icon:        asString(f[fieldIcon]),
		Price:       domain.ClampPrice(price),
		Description: asString(f[fieldDescription]),
		Color:       asString(f[fieldColor]),
		Features:    features,
		Popular:     popular,
		ServiceType: service.Type(asString(f[fieldServiceType])),
		CreatedAt:   created,
		UpdatedAt:   updated,
	}, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) (int, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, nil
		}
		return int(n), nil
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, err
		}
		return int(f), nil
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}

func asStrings(v any) ([]string, error) {
	switch xs := v.(type) {
	case nil:
		return []string{}, nil
	case []string:
		out := make([]string, len(xs))
		copy(out, xs)
		return out, nil
	case []any:
		out := make([]string, 0, len(xs))
		for _, x := range xs {
			s, ok := x.(string)
			if !ok {
				return nil, fmt.Errorf("feature of type %T", x)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unexpected type %T", v)
	}
}

func asTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t.UTC(), nil
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, err
		}
		return parsed.UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("unexpected type %T", v)
	}
}
