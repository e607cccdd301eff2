// Package sqlite provides SQLite export of processed mass spectra
package sqlite

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ChrisMcGann/ftmspeaks/pkg/core"
)

const (
	// Date format for HeaderTable (ISO 8601)
	headerDateFormat = "2006-01-02"
	schemaVersion    = 1
)

// Writer handles writing processed spectra to SQLite database files
type Writer struct {
	db           *sql.DB
	outputPath   string
	runID        uuid.UUID
	description  string
	spectrumStmt *sql.Stmt
	peakStmt     *sql.Stmt
	spectrumID   int
}

// NewWriter creates a new SQLite writer. description is stored in the header table.
func NewWriter(outputPath, description string) (*Writer, error) {
	db, err := sql.Open("sqlite3", outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	w := &Writer{
		db:          db,
		outputPath:  outputPath,
		runID:       uuid.New(),
		description: description,
		spectrumID:  1,
	}

	if err := w.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	if err := w.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}

	return w, nil
}

// RunID identifies the export in the header table and on every spectrum row
func (w *Writer) RunID() uuid.UUID {
	return w.runID
}

// createTables creates the required database schema
func (w *Writer) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS SpectrumTable (
		SpectrumId INTEGER PRIMARY KEY,
		RunId TEXT,
		ScanNumber INTEGER,
		RetentionTime DOUBLE,
		Polarity INTEGER,
		Label TEXT,
		DataKind TEXT,
		SampleName TEXT,
		FileName TEXT,
		BaselineNoise DOUBLE,
		BaselineNoiseStd DOUBLE,
		NoiseDegenerate BOOL,
		ThresholdMethod TEXT,
		Threshold DOUBLE,
		Calibrated BOOL,
		PeakCount INTEGER,
		TIC DOUBLE,
		blobMass BLOB,
		blobIntensity BLOB,
		blobResolution BLOB,
		blobNoises BLOB
	);

	CREATE TABLE IF NOT EXISTS PeakTable (
		SpectrumId INTEGER REFERENCES SpectrumTable(SpectrumId),
		PeakIndex INTEGER,
		ScanIndex INTEGER,
		MzExp DOUBLE,
		MzCal DOUBLE,
		Abundance DOUBLE,
		ResolvingPower DOUBLE,
		SignalToNoise DOUBLE,
		IonCharge INTEGER,
		NominalMz INTEGER,
		KendrickMass DOUBLE,
		KMD DOUBLE,
		Formulas TEXT
	);

	CREATE TABLE IF NOT EXISTS HeaderTable (
		version INTEGER NOT NULL DEFAULT 0,
		RunId TEXT,
		CreationDate TEXT,
		Description TEXT,
		SpectrumCount INTEGER
	);
	`

	_, err := w.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// prepareStatements prepares SQL statements for batch insertion
func (w *Writer) prepareStatements() error {
	var err error

	w.spectrumStmt, err = w.db.Prepare(`
		INSERT INTO SpectrumTable (
			SpectrumId, RunId, ScanNumber, RetentionTime, Polarity, Label,
			DataKind, SampleName, FileName, BaselineNoise, BaselineNoiseStd,
			NoiseDegenerate, ThresholdMethod, Threshold, Calibrated, PeakCount,
			TIC, blobMass, blobIntensity, blobResolution, blobNoises
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare spectrum statement: %w", err)
	}

	w.peakStmt, err = w.db.Prepare(`
		INSERT INTO PeakTable (
			SpectrumId, PeakIndex, ScanIndex, MzExp, MzCal, Abundance,
			ResolvingPower, SignalToNoise, IonCharge, NominalMz, KendrickMass,
			KMD, Formulas
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare peak statement: %w", err)
	}

	return nil
}

// view returns an active-view array, or nil when the view is empty
func view(f func() ([]float64, error)) ([]float64, error) {
	v, err := f()
	if errors.Is(err, core.ErrEmptyPeakSet) {
		return nil, nil
	}
	return v, err
}

// WriteSpectrum writes the active view of a processed spectrum to the database
func (w *Writer) WriteSpectrum(spec core.Spectrum) error {
	params := spec.Params()
	set := spec.Settings()

	mz, err := view(spec.Mz)
	if err != nil {
		return err
	}
	abundance, err := view(spec.Abundance)
	if err != nil {
		return err
	}
	rp, err := view(spec.ResolvingPower)
	if err != nil {
		return err
	}
	s2n, err := view(spec.SignalToNoise)
	if err != nil {
		return err
	}
	km, err := view(spec.KendrickMass)
	if err != nil {
		return err
	}
	kmd, err := view(spec.KMD)
	if err != nil {
		return err
	}

	// Handle optional values
	var rt, noiseLevel, noiseStd, threshold interface{}
	degenerate := false
	if params.RetentionTime != nil {
		rt = *params.RetentionTime
	}
	if b, ok := spec.Baseline(); ok {
		noiseLevel, noiseStd, degenerate = b.Noise, b.Std, b.Degenerate
	}
	if cutoff, err := spec.NoiseCutoff(); err == nil {
		threshold = cutoff.Threshold
	}

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Stmt(w.spectrumStmt).Exec(
		w.spectrumID,                 // SpectrumId
		w.runID.String(),             // RunId
		params.ScanNumber,            // ScanNumber
		rt,                           // RetentionTime
		params.Polarity,              // Polarity
		params.Label,                 // Label
		spec.Kind().String(),         // DataKind
		params.SampleName,            // SampleName
		params.Filename,              // FileName
		noiseLevel,                   // BaselineNoise
		noiseStd,                     // BaselineNoiseStd
		degenerate,                   // NoiseDegenerate
		set.ThresholdMethod.String(), // ThresholdMethod
		threshold,                    // Threshold
		spec.IsCalibrated(),          // Calibrated
		spec.Len(),                   // PeakCount
		spec.TIC(),                   // TIC
		EncodeFloat64(mz),            // blobMass
		EncodeFloat64(abundance),     // blobIntensity
		EncodeFloat64(rp),            // blobResolution
		EncodeFloat64(s2n),           // blobNoises
	)
	if err != nil {
		return fmt.Errorf("failed to insert spectrum: %w", err)
	}

	peakStmt := tx.Stmt(w.peakStmt)
	for i, p := range spec.Peaks() {
		var mzCal interface{}
		if v, ok := p.MzCal(); ok {
			mzCal = v
		}
		_, err := peakStmt.Exec(
			w.spectrumID,                  // SpectrumId
			i,                             // PeakIndex
			p.ScanIndex,                   // ScanIndex
			p.MzExp,                       // MzExp
			mzCal,                         // MzCal
			p.Abundance,                   // Abundance
			p.ResolvingPower,              // ResolvingPower
			p.SignalToNoise,               // SignalToNoise
			p.IonCharge,                   // IonCharge
			p.NominalMz(),                 // NominalMz
			km[i],                         // KendrickMass
			kmd[i],                        // KMD
			strings.Join(p.Formulas, ";"), // Formulas
		)
		if err != nil {
			return fmt.Errorf("failed to insert peak %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit spectrum: %w", err)
	}

	w.spectrumID++
	return nil
}

// EncodeFloat64 encodes values as a little-endian float64 blob
func EncodeFloat64(values []float64) []byte {
	buf := make([]byte, len(values)*8)
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// DecodeFloat64 decodes a little-endian float64 blob
func DecodeFloat64(blob []byte) ([]float64, error) {
	if len(blob)%8 != 0 {
		return nil, fmt.Errorf("blob length %d is not a multiple of 8", len(blob))
	}
	values := make([]float64, len(blob)/8)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[i*8:]))
	}
	return values, nil
}

// Finalize writes the header table and closes the database
func (w *Writer) Finalize() error {
	_, err := w.db.Exec(`
		INSERT INTO HeaderTable (version, RunId, CreationDate, Description, SpectrumCount)
		VALUES (?, ?, ?, ?, ?)
	`, schemaVersion, w.runID.String(), time.Now().Format(headerDateFormat), w.description, w.spectrumID-1)
	if err != nil {
		return fmt.Errorf("failed to insert header: %w", err)
	}

	// Close prepared statements
	if w.spectrumStmt != nil {
		w.spectrumStmt.Close()
	}
	if w.peakStmt != nil {
		w.peakStmt.Close()
	}

	// Close database
	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}

// Close closes the database connection (alias for Finalize)
func (w *Writer) Close() error {
	return w.Finalize()
}
