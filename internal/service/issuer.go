package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/afgc/registry/internal/model"
)

// PackVersion tags the issuance pack document format
const PackVersion = "v1.0"

// pendingFormula selects approved certifications awaiting an issuance pack.
const pendingFormula = "AND({Status}='Active', {Issue_Now}=TRUE(), {Issuance_Pack_Generated}!=TRUE())"

const packStatement = "This document certifies compliance with AFGC governance standards."

// IssueSource is the source contract the issuer depends on: filtered listing
// plus per-record write-back.
type IssueSource interface {
	FetchFiltered(ctx context.Context, formula string) ([]model.RawRecord, error)
	UpdateRecord(ctx context.Context, recordID string, fields map[string]interface{}) error
}

// IssueStats tracks issuance run statistics
type IssueStats struct {
	Total     int
	Generated int
	Failed    int
}

// Issuer generates issuance packs for approved certifications and writes the
// pack URL, hash, and dispatch status back to the source. Unlike the publish
// pipeline, issuance is per-record: one bad certification must not block the
// dispatch of the others, so failures are recorded on the record and the run
// continues.
type Issuer struct {
	source    IssueSource
	outputDir string
	baseURL   string
	dryRun    bool
	logger    *log.Logger
	errLogger *log.Logger
}

// NewIssuer creates a new Issuer. With dryRun set, packs are still generated
// locally but no source record is modified.
func NewIssuer(source IssueSource, outputDir, packBaseURL string, dryRun bool) *Issuer {
	return &Issuer{
		source:    source,
		outputDir: outputDir,
		baseURL:   packBaseURL,
		dryRun:    dryRun,
		logger:    log.New(os.Stdout, "", log.LstdFlags),
		errLogger: log.New(os.Stderr, "ERROR: ", log.LstdFlags),
	}
}

// Run fetches pending certifications and generates one pack per record.
func (i *Issuer) Run(ctx context.Context) (*IssueStats, error) {
	stats := &IssueStats{}

	i.logger.Println("Fetching pending certifications...")
	records, err := i.source.FetchFiltered(ctx, pendingFormula)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending certifications: %w", err)
	}

	stats.Total = len(records)
	i.logger.Printf("Found %d certifications pending issuance packs", stats.Total)

	if stats.Total == 0 {
		return stats, nil
	}

	if err := os.MkdirAll(i.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	for idx, rec := range records {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		certID := rec.Field("Certification_ID")
		if certID == "" {
			certID = "Unknown"
		}

		i.logger.Printf("[%d/%d] Processing %s...", idx+1, stats.Total, certID)

		if err := i.issueOne(ctx, rec, certID); err != nil {
			i.errLogger.Printf("Failed to issue pack for %s: %v", certID, err)
			stats.Failed++
			i.recordFailure(ctx, rec.ID, err)
			continue
		}

		stats.Generated++
	}

	return stats, nil
}

// issueOne writes the pack file, hashes it, and marks the source record as
// generated.
func (i *Issuer) issueOne(ctx context.Context, rec model.RawRecord, certID string) error {
	pack := model.IssuancePack{
		PackVersion:     PackVersion,
		CertificationID: certID,
		EntityName:      rec.Field("Entity_Name"),
		Jurisdiction:    rec.Field("Jurisdiction"),
		IssuedDate:      rec.Field("Issued_Date"),
		ExpirationDate:  rec.Field("Expiration_Date"),
		Scope:           rec.Field("High_Level_Scope"),
		GeneratedUTC:    time.Now().UTC().Format(time.RFC3339),
		Statement:       packStatement,
	}

	data, err := json.MarshalIndent(pack, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize pack: %w", err)
	}
	data = append(data, '\n')

	path := filepath.Join(i.outputDir, certID+"_issuance_pack.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write pack: %w", err)
	}

	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])
	i.logger.Printf("  Generated: %s", path)
	i.logger.Printf("  SHA256: %s", digest)

	if i.dryRun {
		i.logger.Printf("  [DRY RUN] Would update record %s", rec.ID)
		return nil
	}

	return i.source.UpdateRecord(ctx, rec.ID, map[string]interface{}{
		"Issuance_Pack_Generated":  true,
		"Issuance_Pack_URL":        fmt.Sprintf("%s/%s.json", i.baseURL, certID),
		"Issuance_Pack_SHA256":     digest,
		"Issuance_Dispatch_Status": "Pending",
	})
}

// recordFailure marks the source record as failed so operators see the error
// where the approval workflow lives. Best effort: a write-back failure is
// logged, not escalated.
func (i *Issuer) recordFailure(ctx context.Context, recordID string, cause error) {
	if i.dryRun {
		return
	}

	err := i.source.UpdateRecord(ctx, recordID, map[string]interface{}{
		"Issuance_Dispatch_Status": "Failed",
		"Issuance_Error_Log":       cause.Error(),
	})
	if err != nil {
		i.errLogger.Printf("Failed to record failure for %s: %v", recordID, err)
	}
}

// PrintSummary prints the issuance statistics
func (i *Issuer) PrintSummary(stats *IssueStats) {
	i.logger.Println("")
	i.logger.Println("=== Issuance Summary ===")
	i.logger.Printf("Pending:     %d", stats.Total)
	i.logger.Printf("Generated:   %d", stats.Generated)
	i.logger.Printf("Failed:      %d", stats.Failed)
}
