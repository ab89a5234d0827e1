// Package session stores bounded per-session conversation context. Two
// backends share one contract: the most recent N turns, oldest first,
// expiring after the idle TTL.
package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kailas-cloud/memberscout/internal/domain/conversation"
	"github.com/kailas-cloud/memberscout/internal/domain/query/filter"
	"github.com/kailas-cloud/memberscout/internal/domain/query/spec"
)

// turnDTO is the wire form of a turn. Spec and filters are value types with
// unexported fields, so the codec flattens them explicitly.
type turnDTO struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	TenantID  string    `json:"tenant_id"`
	Timestamp time.Time `json:"ts"`
	RawText   string    `json:"raw_text"`
	Spec      specDTO   `json:"spec"`
	ResultIDs []string  `json:"result_ids,omitempty"`
}

type specDTO struct {
	TenantID string      `json:"tenant_id"`
	Text     string      `json:"text"`
	Filters  []filterDTO `json:"filters,omitempty"`
	Limit    int         `json:"limit"`
	Offset   int         `json:"offset"`
}

type filterDTO struct {
	Kind        string   `json:"kind"`
	Year        int      `json:"year,omitempty"`
	Value       string   `json:"value,omitempty"`
	Terms       []string `json:"terms,omitempty"`
	MinTurnover float64  `json:"min_turnover,omitempty"`
}

func encodeTurn(t conversation.Turn) ([]byte, error) {
	dto := turnDTO{
		ID:        t.ID,
		SessionID: t.SessionID,
		TenantID:  t.TenantID,
		Timestamp: t.Timestamp,
		RawText:   t.RawText,
		ResultIDs: t.ResultIDs,
	}
	if !t.Spec.IsZero() {
		dto.Spec = specDTO{
			TenantID: t.Spec.TenantID(),
			Text:     t.Spec.Text(),
			Filters:  encodeFilters(t.Spec.Filters()),
			Limit:    t.Spec.Limit(),
			Offset:   t.Spec.Offset(),
		}
	}
	data, err := json.Marshal(dto)
	if err != nil {
		return nil, fmt.Errorf("encode turn: %w", err)
	}
	return data, nil
}

func decodeTurn(data []byte) (conversation.Turn, error) {
	var dto turnDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return conversation.Turn{}, fmt.Errorf("decode turn: %w", err)
	}

	t := conversation.Turn{
		ID:        dto.ID,
		SessionID: dto.SessionID,
		TenantID:  dto.TenantID,
		Timestamp: dto.Timestamp,
		RawText:   dto.RawText,
		ResultIDs: dto.ResultIDs,
	}
	if dto.Spec.TenantID != "" {
		s, err := spec.New(dto.Spec.TenantID, dto.Spec.Text,
			decodeFilters(dto.Spec.Filters), dto.Spec.Limit, dto.Spec.Offset)
		if err != nil {
			return conversation.Turn{}, fmt.Errorf("decode turn spec: %w", err)
		}
		t.Spec = s
	}
	return t, nil
}

func encodeFilters(set filter.Set) []filterDTO {
	conds := set.Conditions()
	if len(conds) == 0 {
		return nil
	}
	out := make([]filterDTO, 0, len(conds))
	for _, c := range conds {
		out = append(out, filterDTO{
			Kind:        string(c.Kind()),
			Year:        c.Year(),
			Value:       c.Value(),
			Terms:       c.Terms(),
			MinTurnover: c.MinTurnover(),
		})
	}
	return out
}

// decodeFilters rebuilds conditions through the constructors, silently
// dropping entries that no longer validate.
func decodeFilters(dtos []filterDTO) filter.Set {
	set := filter.NewSet()
	for _, d := range dtos {
		var c filter.Condition
		var err error
		switch filter.Kind(d.Kind) {
		case filter.KindYear:
			c, err = filter.NewYear(d.Year)
		case filter.KindBranch:
			c, err = filter.NewBranch(d.Value)
		case filter.KindCity:
			c, err = filter.NewCity(d.Value)
		case filter.KindSkill:
			c, err = filter.NewSkills(d.Terms...)
		case filter.KindDesignation:
			c, err = filter.NewDesignation(d.Value)
		case filter.KindTurnover:
			c, err = filter.NewTurnoverAtLeast(d.MinTurnover)
		case filter.KindName:
			c, err = filter.NewName(d.Value)
		default:
			continue
		}
		if err == nil {
			set = set.With(c)
		}
	}
	return set
}
