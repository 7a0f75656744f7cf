package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/SscSPs/factor_ops_app/internal/blob"
	"github.com/SscSPs/factor_ops_app/internal/core/domain"
	portssvc "github.com/SscSPs/factor_ops_app/internal/core/ports/services"
)

const (
	artifactRoot     = "factor-operations"
	snapshotArtifact = "snapshot.json"
	csvArtifact      = "items.csv"
	reportArtifact   = "report.txt"
	dateLayout       = "2006-01-02"
)

var itemsCSVHeader = []string{
	"line_no", "action_type", "installment_id", "ar_title_id", "sales_document_id", "customer_id",
	"installment_number", "due_date", "proposed_due_date", "amount", "buyback_settle_now",
}

// blobPackager writes the transmission files of a version to a blob store.
type blobPackager struct {
	store blob.Store
}

// NewTransmissionPackager returns a packager storing artifacts in store.
func NewTransmissionPackager(store blob.Store) portssvc.TransmissionPackager {
	return &blobPackager{store: store}
}

var _ portssvc.TransmissionPackager = (*blobPackager)(nil)

// ArtifactPrefix is the key prefix under which the files of a version are stored.
func ArtifactPrefix(operationID string, versionNumber int, versionID string) string {
	return fmt.Sprintf("%s/%s/v%d-%s/", artifactRoot, operationID, versionNumber, versionID)
}

// Package renders the snapshot, the item CSV and a human readable report.
func (p *blobPackager) Package(ctx context.Context, snapshot domain.VersionSnapshot) (domain.PackageArtifacts, error) {
	prefix := ArtifactPrefix(snapshot.OperationID, snapshot.VersionNumber, snapshot.VersionID)
	meta := map[string]string{
		"operation-id":   snapshot.OperationID,
		"version-number": strconv.Itoa(snapshot.VersionNumber),
	}

	snapshotJSON, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return domain.PackageArtifacts{}, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	itemsCSV, err := renderItemsCSV(snapshot.Items)
	if err != nil {
		return domain.PackageArtifacts{}, err
	}
	report, err := renderReport(snapshot)
	if err != nil {
		return domain.PackageArtifacts{}, err
	}

	artifacts := domain.PackageArtifacts{
		SnapshotKey: prefix + snapshotArtifact,
		CSVKey:      prefix + csvArtifact,
		ReportKey:   prefix + reportArtifact,
	}
	files := []struct {
		key         string
		contentType string
		body        []byte
	}{
		{artifacts.SnapshotKey, "application/json", snapshotJSON},
		{artifacts.CSVKey, "text/csv", itemsCSV},
		{artifacts.ReportKey, "text/plain; charset=utf-8", report},
	}
	for _, f := range files {
		_, err := p.store.Put(ctx, f.key, bytes.NewReader(f.body), blob.PutOptions{ContentType: f.contentType, Metadata: meta})
		if err != nil {
			return domain.PackageArtifacts{}, fmt.Errorf("failed to store %s: %w", f.key, err)
		}
	}
	return artifacts, nil
}

func renderItemsCSV(items []domain.OperationItem) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(itemsCSVHeader); err != nil {
		return nil, err
	}
	for _, it := range items {
		proposed := ""
		if it.ProposedDueDate != nil {
			proposed = it.ProposedDueDate.Format(dateLayout)
		}
		record := []string{
			strconv.Itoa(it.LineNo),
			string(it.ActionType),
			it.InstallmentID,
			it.ARTitleID,
			it.SalesDocumentID,
			it.CustomerID,
			strconv.Itoa(it.Snapshot.InstallmentNumber),
			it.Snapshot.DueDate.Format(dateLayout),
			proposed,
			it.Snapshot.Amount.StringFixed(2),
			strconv.FormatBool(it.BuybackSettleNow),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write items csv: %w", err)
	}
	return buf.Bytes(), nil
}

func renderReport(s domain.VersionSnapshot) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Factor operation FO-%d (version %d)\n", s.OperationNumber, s.VersionNumber)
	fmt.Fprintf(&buf, "Factor: %s\n", s.FactorID)
	if s.Reference != "" {
		fmt.Fprintf(&buf, "Reference: %s\n", s.Reference)
	}
	fmt.Fprintf(&buf, "Issue date: %s\n", s.IssueDate.Format(dateLayout))
	if s.ExpectedSettlementDate != nil {
		fmt.Fprintf(&buf, "Expected settlement: %s\n", s.ExpectedSettlementDate.Format(dateLayout))
	}
	fmt.Fprintf(&buf, "Items: %d  Gross: %s\n\n", len(s.Items), s.GrossAmount.StringFixed(2))

	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Line\tAction\tInstallment\tDue\tAmount\t")
	for _, it := range s.Items {
		due := it.Snapshot.DueDate
		if it.ProposedDueDate != nil {
			due = *it.ProposedDueDate
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t\n",
			it.LineNo, it.ActionType, it.InstallmentID, due.Format(dateLayout), it.Snapshot.Amount.StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return buf.Bytes(), nil
}
