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
	"sort"
	"strings"
	"time"

	"github.com/afgc/registry/internal/model"
)

// RegistryVersion tags the published envelope format
const RegistryVersion = "v1.0"

// RecordSource is the fetch contract the publisher depends on: one call that
// yields the complete record set or an error, pagination hidden inside.
type RecordSource interface {
	FetchAllRecords(ctx context.Context) ([]model.RawRecord, error)
}

// PublishStats tracks the outcome of one publish run
type PublishStats struct {
	Records        int
	Entries        int
	DuplicateIDs   int
	ArtifactPath   string
	ArtifactSHA256 string
	GeneratedUTC   time.Time
	Duration       time.Duration
}

// PublishOptions configures where and under what identity the registry is
// published.
type PublishOptions struct {
	OutputDir           string
	ArtifactName        string
	SchemaPath          string
	PublisherName       string
	PublisherDisclaimer string
}

// Publisher orchestrates the registry publish pipeline: schema copy, fetch,
// map, sort, envelope, write. A failure at any step leaves the previously
// published artifact untouched.
type Publisher struct {
	source    RecordSource
	mapper    *Mapper
	opts      PublishOptions
	logger    *log.Logger
	errLogger *log.Logger
}

// NewPublisher creates a new Publisher
func NewPublisher(source RecordSource, mapper *Mapper, opts PublishOptions) *Publisher {
	return &Publisher{
		source:    source,
		mapper:    mapper,
		opts:      opts,
		logger:    log.New(os.Stdout, "", log.LstdFlags),
		errLogger: log.New(os.Stderr, "ERROR: ", log.LstdFlags),
	}
}

// Run executes one publish. The registry artifact is serialized fully in
// memory and renamed into place, so no partially-validated or partially-sorted
// file is ever observable as the final artifact.
func (p *Publisher) Run(ctx context.Context) (*PublishStats, error) {
	start := time.Now()
	stats := &PublishStats{}

	if err := os.MkdirAll(p.opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	p.logger.Printf("Copying schema %s...", filepath.Base(p.opts.SchemaPath))
	if err := p.copySchema(); err != nil {
		return nil, err
	}

	p.logger.Println("Fetching records from source...")
	records, err := p.source.FetchAllRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch records: %w", err)
	}
	stats.Records = len(records)
	p.logger.Printf("Fetched %d records", stats.Records)

	entries := make([]model.RegistryEntry, 0, len(records))
	for _, rec := range records {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		entry, err := p.mapper.Map(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to map record: %w", err)
		}
		entries = append(entries, entry)
	}
	stats.Entries = len(entries)

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CertificationID < entries[j].CertificationID
	})

	// The source of truth does not enforce ID uniqueness; duplicates pass
	// through but are surfaced to the operator.
	if dupes := duplicateIDs(entries); len(dupes) > 0 {
		stats.DuplicateIDs = len(dupes)
		p.errLogger.Printf("Warning: duplicate certification IDs published: %s", strings.Join(dupes, ", "))
	}

	doc := model.RegistryDocument{
		RegistryVersion: RegistryVersion,
		GeneratedUTC:    start.UTC().Format(time.RFC3339),
		Publisher: model.Publisher{
			Name:       p.opts.PublisherName,
			Disclaimer: p.opts.PublisherDisclaimer,
		},
		Entries: entries,
	}
	stats.GeneratedUTC = start.UTC()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize registry: %w", err)
	}
	data = append(data, '\n')

	artifactPath := filepath.Join(p.opts.OutputDir, p.opts.ArtifactName)
	if err := writeFileAtomic(artifactPath, data); err != nil {
		return nil, fmt.Errorf("failed to write registry artifact: %w", err)
	}

	sum := sha256.Sum256(data)
	stats.ArtifactPath = artifactPath
	stats.ArtifactSHA256 = hex.EncodeToString(sum[:])
	stats.Duration = time.Since(start)

	return stats, nil
}

// copySchema places the canonical schema file next to the artifact,
// byte-for-byte.
func (p *Publisher) copySchema() error {
	data, err := os.ReadFile(p.opts.SchemaPath)
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}

	dest := filepath.Join(p.opts.OutputDir, filepath.Base(p.opts.SchemaPath))
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("failed to copy schema file: %w", err)
	}

	return nil
}

// duplicateIDs returns the IDs that appear more than once in a sorted entry
// slice, each reported once.
func duplicateIDs(entries []model.RegistryEntry) []string {
	var dupes []string
	for i := 1; i < len(entries); i++ {
		if entries[i].CertificationID != entries[i-1].CertificationID {
			continue
		}
		if len(dupes) == 0 || dupes[len(dupes)-1] != entries[i].CertificationID {
			dupes = append(dupes, entries[i].CertificationID)
		}
	}
	return dupes
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it over the final path.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return nil
}

// PrintSummary prints the publish statistics
func (p *Publisher) PrintSummary(stats *PublishStats) {
	p.logger.Println("")
	p.logger.Println("=== Publish Summary ===")
	p.logger.Printf("Records fetched:  %d", stats.Records)
	p.logger.Printf("Entries written:  %d", stats.Entries)
	if stats.DuplicateIDs > 0 {
		p.logger.Printf("Duplicate IDs:    %d", stats.DuplicateIDs)
	}
	p.logger.Printf("Artifact:         %s", stats.ArtifactPath)
	p.logger.Printf("SHA-256:          %s", stats.ArtifactSHA256)
	p.logger.Printf("Duration:         %s", stats.Duration.Round(time.Millisecond))
}
