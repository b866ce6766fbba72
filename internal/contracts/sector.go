package contracts

// Sector classifies a symbol into a market sector. Classification is
// provided by an injected SectorLookup so new symbols never require a
// code change.
type Sector string

const (
	SectorBanking    Sector = "BANKING"
	SectorIT         Sector = "IT"
	SectorOilGas     Sector = "OIL_GAS"
	SectorAuto       Sector = "AUTO"
	SectorPharma     Sector = "PHARMA"
	SectorFMCG       Sector = "FMCG"
	SectorMetals     Sector = "METALS"
	SectorRealEstate Sector = "REAL_ESTATE"
	SectorTelecom    Sector = "TELECOM"
	SectorPower      Sector = "POWER"
	SectorCement     Sector = "CEMENT"
	SectorInfra      Sector = "INFRA"
	SectorETF        Sector = "ETF"
	SectorOther      Sector = "OTHER"
)

// AllSectors returns every known sector.
func AllSectors() []Sector {
	return []Sector{
		SectorBanking, SectorIT, SectorOilGas, SectorAuto, SectorPharma,
		SectorFMCG, SectorMetals, SectorRealEstate, SectorTelecom,
		SectorPower, SectorCement, SectorInfra, SectorETF, SectorOther,
	}
}

// Valid reports whether s is a known sector value.
func (s Sector) Valid() bool {
	for _, known := range AllSectors() {
		if s == known {
			return true
		}
	}
	return false
}
