package service

import (
	"context"
	"sync"

	"fitsync/internal/domain"
)

// dispatchResult carries the collected output of one account's chunk fan-out.
type dispatchResult struct {
	records    []domain.Activity
	duplicates int
	errors     int
}

// dispatch partitions one account's raw activities into bounded chunks and
// processes them on the run-wide worker pool. Failures inside one chunk are
// isolated to that chunk's partial result.
func (s *SyncService) dispatch(ctx context.Context, accessToken string, userID int64, raws []domain.RawActivity) dispatchResult {
	chunks := chunkActivities(raws, s.config.ChunkWorkers)

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		result dispatchResult
	)

	for _, chunk := range chunks {
		if err := s.workers.Acquire(ctx, 1); err != nil {
			mu.Lock()
			result.errors += len(chunk)
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(chunk []domain.RawActivity) {
			defer wg.Done()
			defer s.workers.Release(1)

			records, duplicates, errors := s.processChunk(ctx, accessToken, userID, chunk)

			mu.Lock()
			result.records = append(result.records, records...)
			result.duplicates += duplicates
			result.errors += errors
			mu.Unlock()
		}(chunk)
	}

	wg.Wait()
	return result
}

// chunkActivities splits the batch into len/workers sized chunks. With fewer
// activities than workers the whole batch becomes a single chunk instead of
// zero-sized chunks.
func chunkActivities(raws []domain.RawActivity, workers int) [][]domain.RawActivity {
	if len(raws) == 0 {
		return nil
	}

	size := len(raws) / workers
	if size == 0 {
		return [][]domain.RawActivity{raws}
	}

	var chunks [][]domain.RawActivity
	for i := 0; i < len(raws); i += size {
		end := i + size
		if end > len(raws) {
			end = len(raws)
		}
		chunks = append(chunks, raws[i:end])
	}
	return chunks
}

// processChunk deduplicates and normalizes one chunk. Per-activity failures
// are counted and skipped so the rest of the chunk still produces records.
func (s *SyncService) processChunk(ctx context.Context, accessToken string, userID int64, chunk []domain.RawActivity) ([]domain.Activity, int, int) {
	var (
		records    []domain.Activity
		duplicates int
		errors     int
	)

	for _, raw := range chunk {
		exists, err := s.activities.ExistsByStravaID(ctx, raw.ID)
		if err != nil {
			s.logger.Warn("dedup check failed", "user_id", userID, "strava_activity_id", raw.ID, "error", err)
			errors++
			continue
		}
		if exists {
			duplicates++
			continue
		}

		streams, err := s.source.GetStreams(ctx, accessToken, raw.ID)
		if err != nil {
			s.logger.Warn("stream fetch failed", "user_id", userID, "strava_activity_id", raw.ID, "error", err)
			errors++
			continue
		}

		records = append(records, s.normalizer.Normalize(ctx, userID, raw, streams))
	}

	return records, duplicates, errors
}
