package sectors

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/akshayr/portfolio-coach/internal/contracts"
	"github.com/akshayr/portfolio-coach/pkg/logger"
)

func TestLookup_SectorOf_Defaults(t *testing.T) {
	l := NewLookup(nil, logger.NewNop())

	assert.Equal(t, contracts.SectorBanking, l.SectorOf("HDFCBANK"))
	assert.Equal(t, contracts.SectorIT, l.SectorOf("TCS"))
	assert.Equal(t, contracts.SectorOilGas, l.SectorOf("RELIANCE"))
	assert.Equal(t, contracts.SectorETF, l.SectorOf("NIFTYBEES"))
}

func TestLookup_SectorOf_Normalizes(t *testing.T) {
	l := NewLookup(nil, logger.NewNop())

	assert.Equal(t, contracts.SectorIT, l.SectorOf("infy"))
	assert.Equal(t, contracts.SectorIT, l.SectorOf("  Tcs "))
}

func TestLookup_SectorOf_UnknownIsOther(t *testing.T) {
	l := NewLookup(nil, logger.NewNop())

	assert.Equal(t, contracts.SectorOther, l.SectorOf("SMALLCAP123"))
	assert.Equal(t, contracts.SectorOther, l.SectorOf(""))
}

func TestLookup_OverlayWinsOverDefault(t *testing.T) {
	l := NewLookup(nil, logger.NewNop())
	l.overlays = map[string]contracts.Sector{
		"TCS":      contracts.SectorOther,
		"NEWLISTD": contracts.SectorPharma,
	}

	assert.Equal(t, contracts.SectorOther, l.SectorOf("TCS"))
	assert.Equal(t, contracts.SectorPharma, l.SectorOf("NEWLISTD"))
	assert.Equal(t, contracts.SectorBanking, l.SectorOf("SBIN"))
}
