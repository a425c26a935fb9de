package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolDataFetcher/internal/config"
	"poolDataFetcher/internal/model"
	"poolDataFetcher/internal/storage"
)

var (
	runBlockRange   = withSession(blockRange)
	runEvents       = withSession(events)
	runFetch        = withSession(fetch)
	runPoolsCreated = withSession(poolsCreated)
)

func withSession(fn func(cmd *cobra.Command, s *session) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.close()

		if err := fn(cmd, s); err != nil {
			s.logger.Error("command failed", zap.String("command", cmd.Name()), zap.Error(err))
			return err
		}
		return nil
	}
}

func blockRange(cmd *cobra.Command, s *session) error {
	if s.cfg.Start == "" || s.cfg.End == "" {
		return fmt.Errorf("%w: start and end are required", model.ErrInvalidInput)
	}

	blockRange, err := s.service.ResolveBlockRange(s.ctx, s.cfg.Start, s.cfg.End)
	if err != nil {
		return err
	}
	s.logger.Info("block range resolved",
		zap.String("start", s.cfg.Start),
		zap.String("end", s.cfg.End),
		zap.Uint64("from", blockRange.From),
		zap.Uint64("to", blockRange.To))

	return writeJSON(cmd.OutOrStdout(), blockRange)
}

func events(cmd *cobra.Command, s *session) error {
	pools, err := config.ParseAddresses(s.cfg.Pools)
	if err != nil {
		return err
	}
	pairs, err := config.ParseTokenPairs(s.cfg.Pairs)
	if err != nil {
		return err
	}
	if len(pools) > 0 && len(pairs) > 0 {
		return fmt.Errorf("%w: use either pool or pair, not both", model.ErrInvalidInput)
	}
	if len(pools) == 0 && len(pairs) == 0 {
		return fmt.Errorf("%w: pool or pair is required", model.ErrInvalidInput)
	}

	s.logger.Info("fetch pool events",
		zap.Int("pools", len(pools)),
		zap.Int("pairs", len(pairs)),
		zap.Uint64("from", s.cfg.From),
		zap.Uint64("to", s.cfg.To))

	var result model.ResultSet
	if len(pools) > 0 {
		result, err = s.service.FetchPoolEventsByPoolAddresses(s.ctx, pools, s.cfg.From, s.cfg.To)
	} else {
		result, err = s.service.FetchPoolEventsByTokenPairs(s.ctx, pairs, s.cfg.From, s.cfg.To)
	}
	if err != nil {
		return err
	}
	return emitResultSet(cmd.OutOrStdout(), s, result)
}

func fetch(cmd *cobra.Command, s *session) error {
	pairs, err := config.ParseTokenPairs(s.cfg.Pairs)
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		return fmt.Errorf("%w: pair is required", model.ErrInvalidInput)
	}
	if s.cfg.Start == "" || s.cfg.End == "" {
		return fmt.Errorf("%w: start and end are required", model.ErrInvalidInput)
	}

	result, err := s.service.FetchPoolEventsByTimeRange(s.ctx, pairs, s.cfg.Start, s.cfg.End, s.cfg.Interval)
	if err != nil {
		return err
	}
	return emitResultSet(cmd.OutOrStdout(), s, result)
}

func poolsCreated(cmd *cobra.Command, s *session) error {
	if s.cfg.Start == "" || s.cfg.End == "" {
		return fmt.Errorf("%w: start and end are required", model.ErrInvalidInput)
	}

	records, err := s.service.FetchPoolCreatedEvents(s.ctx, s.cfg.Start, s.cfg.End)
	if err != nil {
		return err
	}
	if records == nil {
		records = []model.PoolCreatedRecord{}
	}

	if s.cfg.Out != "" {
		if err := storage.NewJsonlStorage(s.cfg.Out).PutPoolCreated(records); err != nil {
			return err
		}
		s.logger.Info("pool created events written", zap.Int("pools", len(records)), zap.String("out", s.cfg.Out))
		return nil
	}
	return writeJSON(cmd.OutOrStdout(), records)
}

// emitResultSet prints the result set, or appends its records to the JSONL
// output and logs the digest.
func emitResultSet(w io.Writer, s *session, result model.ResultSet) error {
	if s.cfg.Out == "" {
		return writeJSON(w, result)
	}

	var sink storage.Storage = storage.NewJsonlStorage(s.cfg.Out)
	if err := sink.PutRecords(result.Data); err != nil {
		return err
	}
	s.logger.Info("pool events written",
		zap.Int("records", len(result.Data)),
		zap.String("overall_data_hash", result.OverallDataHash),
		zap.String("out", s.cfg.Out),
		zap.Int("cached_blocks", s.service.CachedBlocks()))
	return nil
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
