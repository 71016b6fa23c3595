package cricketdata

import (
	"context"
	"errors"
	"fmt"

	derr "github.com/UtkarshNigam11/Syncender-sub001/internal/domain/errors"
	"github.com/UtkarshNigam11/Syncender-sub001/internal/domain/ports"
	"github.com/UtkarshNigam11/Syncender-sub001/internal/infrastructures/cricketdata/dto"
	"github.com/UtkarshNigam11/Syncender-sub001/internal/infrastructures/cricketdata/http/client"
	"github.com/UtkarshNigam11/Syncender-sub001/internal/infrastructures/cricketdata/mappers"
)

// Source adapts the provider HTTP client to the MatchProvider port. It is
// the ingest boundary: every item is validated into a RawMatch here,
// malformed ones are dropped and counted, never passed downstream.
type Source struct {
	client *client.Client
}

func NewSource(client *client.Client) *Source {
	return &Source{client: client}
}

func (s *Source) FetchCurrentMatches(ctx context.Context) (ports.FetchResult, error) {
	envelope, err := s.client.GetCurrentMatches(ctx)
	if err != nil {
		if errors.Is(err, derr.ErrProviderUnavailable) {
			return ports.FetchResult{}, fmt.Errorf("get current matches: %w", derr.ErrProviderUnavailable)
		}
		return ports.FetchResult{}, fmt.Errorf("get current matches: %w", err)
	}
	return mapEnvelope(envelope), nil
}

func (s *Source) FetchUpcomingMatches(ctx context.Context) (ports.FetchResult, error) {
	envelope, err := s.client.GetUpcomingMatches(ctx)
	if err != nil {
		if errors.Is(err, derr.ErrProviderUnavailable) {
			return ports.FetchResult{}, fmt.Errorf("get upcoming matches: %w", derr.ErrProviderUnavailable)
		}
		return ports.FetchResult{}, fmt.Errorf("get upcoming matches: %w", err)
	}
	return mapEnvelope(envelope), nil
}

func mapEnvelope(envelope dto.Envelope) ports.FetchResult {
	result := ports.FetchResult{
		HitsToday: envelope.Info.HitsToday,
		HitsLimit: envelope.Info.HitsLimit,
	}

	for _, item := range envelope.Data {
		raw, err := mappers.ToRawMatch(item)
		if err != nil {
			result.Malformed++
			continue
		}
		result.Matches = append(result.Matches, raw)
	}

	return result
}
