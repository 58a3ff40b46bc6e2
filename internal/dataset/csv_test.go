package dataset

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anyulbade/lei-cost-enricher/internal/model"
)

func TestRead_AppendsMissingEnrichmentColumns(t *testing.T) {
	tbl, err := Read(strings.NewReader("transaction_uti,lei,notional,rate\nU1,LEI1,1000,0.5\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"transaction_uti", "lei", "notional", "rate", "legal_name", "bic", "transaction_costs"}, tbl.Header)
	require.Len(t, tbl.Rows, 1)
	row := tbl.Rows[0]
	assert.Equal(t, 0, row.Index)
	assert.Equal(t, "LEI1", row.LEI)
	assert.Equal(t, 1000.0, row.Notional)
	assert.Equal(t, 0.5, row.Rate)
	assert.Nil(t, row.LegalName)
	assert.Nil(t, row.BIC)
	assert.Nil(t, row.TransactionCosts)
}

func TestRead_MissingRequiredColumn(t *testing.T) {
	_, err := Read(strings.NewReader("lei,notional\nLEI1,1000\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))
	assert.Contains(t, err.Error(), "rate")
}

func TestRead_StripsByteOrderMark(t *testing.T) {
	tbl, err := Read(strings.NewReader("\ufefflei,notional,rate\nL1,1,1\n"))
	require.NoError(t, err)
	assert.Equal(t, "lei", tbl.Header[0])
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "L1", tbl.Rows[0].LEI)

	var buf bytes.Buffer
	require.NoError(t, tbl.Write(&buf))
	assert.True(t, strings.HasPrefix(buf.String(), "lei,notional,rate,"))
}

func TestRead_InvalidNumber(t *testing.T) {
	_, err := Read(strings.NewReader("lei,notional,rate\nLEI1,abc,1\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidNumber))
}

func TestRead_EmptyNumberIsNaN(t *testing.T) {
	tbl, err := Read(strings.NewReader("lei,notional,rate\nLEI1,,1.1\n"))
	require.NoError(t, err)
	assert.True(t, math.IsNaN(tbl.Rows[0].Notional))
}

func TestWrite_UnenrichedRowRoundTrips(t *testing.T) {
	input := "lei,notional,rate\nLEI1,1000,0.5\nLEI2,-250.75,1.1\n"
	tbl, err := Read(strings.NewReader(input))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tbl.Write(&buf))
	assert.Equal(t, "lei,notional,rate,legal_name,bic,transaction_costs\nLEI1,1000,0.5,,,\nLEI2,-250.75,1.1,,,\n", buf.String())
}

func TestWrite_EnrichedRowOverwritesColumns(t *testing.T) {
	input := "lei,notional,rate,legal_name,bic,transaction_costs\nLEI1,1000,0.5,Old,OLDBIC,1\nLEI2,1000,0.5,Keep,KEEPBIC,2\n"
	tbl, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	require.NotNil(t, tbl.Rows[1].LegalName)
	assert.Equal(t, "Keep", *tbl.Rows[1].LegalName)

	tbl.Rows[0].Apply(model.EntityAttributes{LegalName: "Acme N.V.", Country: "FR"}, model.Unsupported())

	var buf bytes.Buffer
	require.NoError(t, tbl.Write(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "LEI1,1000,0.5,Acme N.V.,,", lines[1])
	assert.Equal(t, "LEI2,1000,0.5,Keep,KEEPBIC,2", lines[2])
}

func TestWrite_QuotesJoinedBIC(t *testing.T) {
	tbl, err := Read(strings.NewReader("lei,notional,rate\nLEI1,1000,1.1\n"))
	require.NoError(t, err)

	bic := "ABCDEF12, XYZDEF34"
	tbl.Rows[0].Apply(model.EntityAttributes{LegalName: "Acme Ltd", BIC: &bic, Country: "GB"}, model.Computed(100))

	var buf bytes.Buffer
	require.NoError(t, tbl.Write(&buf))
	assert.Contains(t, buf.String(), `LEI1,1000,1.1,Acme Ltd,"ABCDEF12, XYZDEF34",100`)
}

func TestLoadAndSave(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	out := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(in, []byte("lei,notional,rate\nLEI1,1,1\n"), 0o644))

	tbl, err := Load(in)
	require.NoError(t, err)
	require.NoError(t, tbl.Save(out))

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "lei,notional,rate,legal_name,bic,transaction_costs\nLEI1,1,1,,,\n", string(b))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
