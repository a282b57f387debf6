package store

import (
	"context"
	"fmt"
)

// CopyResult counts what Copy did
type CopyResult struct {
	Copied  int
	Skipped int
	Failed  int
}

// Copy writes every readable record from src into dst. Records already present in dst are
// skipped unless overwrite is set. A failed record is counted and does not stop the copy;
// only a failure to list src is returned as an error.
func Copy(ctx context.Context, dst, src VersionStore, overwrite bool, report func(companyID, outcome string, err error)) (CopyResult, error) {
	var res CopyResult
	if report == nil {
		report = func(string, string, error) {}
	}

	histories, err := src.ListAll(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to list source histories: %w", err)
	}

	for _, h := range histories {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if !overwrite {
			existing, err := dst.Get(ctx, h.CompanyID)
			if err != nil {
				res.Failed++
				report(h.CompanyID, "failed", err)
				continue
			}
			if existing != nil {
				res.Skipped++
				report(h.CompanyID, "skipped", nil)
				continue
			}
		}
		if err := dst.Put(ctx, h.CompanyID, h); err != nil {
			res.Failed++
			report(h.CompanyID, "failed", err)
			continue
		}
		res.Copied++
		report(h.CompanyID, "copied", nil)
	}
	return res, nil
}
