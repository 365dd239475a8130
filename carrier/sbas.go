package carrier

// SbasType identifies the operator of an SBAS satellite.
type SbasType int

const (
	SbasUnknown SbasType = iota
	SbasWAAS
	SbasEGNOS
	SbasGAGAN
	SbasMSAS
	SbasSDCM
	SbasSouthPAN
	SbasBDSBAS
	SbasKASS
)

var sbasNames = map[SbasType]string{
	SbasUnknown:  "Unknown",
	SbasWAAS:     "WAAS",
	SbasEGNOS:    "EGNOS",
	SbasGAGAN:    "GAGAN",
	SbasMSAS:     "MSAS",
	SbasSDCM:     "SDCM",
	SbasSouthPAN: "SouthPAN",
	SbasBDSBAS:   "BDSBAS",
	SbasKASS:     "KASS",
}

// sbasOperators maps the PRNs currently assigned to SBAS satellites to
// their operators.
var sbasOperators = map[int]SbasType{
	120: SbasEGNOS,
	121: SbasEGNOS,
	122: SbasSouthPAN,
	123: SbasEGNOS,
	124: SbasEGNOS,
	125: SbasSDCM,
	126: SbasEGNOS,
	127: SbasGAGAN,
	128: SbasGAGAN,
	129: SbasMSAS,
	130: SbasBDSBAS,
	131: SbasWAAS,
	132: SbasGAGAN,
	133: SbasWAAS,
	134: SbasKASS,
	135: SbasWAAS,
	136: SbasEGNOS,
	137: SbasMSAS,
	138: SbasWAAS,
	140: SbasSDCM,
	141: SbasSDCM,
	143: SbasBDSBAS,
	144: SbasBDSBAS,
}

// sbasBands gives the bands broadcast by each operator.  Dual-frequency
// multi-constellation (DFMC) services add L5 to the legacy L1 service.
var sbasBands = map[SbasType][]Label{
	SbasUnknown:  {L1},
	SbasWAAS:     {L1, L5},
	SbasEGNOS:    {L1, L5},
	SbasGAGAN:    {L1, L5},
	SbasMSAS:     {L1, L5},
	SbasSDCM:     {L1},
	SbasSouthPAN: {L1, L5},
	SbasBDSBAS:   {L1, L5},
	SbasKASS:     {L1},
}

// SbasTypeFromPRN returns the operator of the SBAS satellite with the given
// PRN, or SbasUnknown.
func SbasTypeFromPRN(prn int) SbasType {
	sbasType, ok := sbasOperators[prn]
	if !ok {
		return SbasUnknown
	}
	return sbasType
}

// String returns the name of the operator.
func (sbasType SbasType) String() string {
	name, ok := sbasNames[sbasType]
	if !ok {
		return "Unknown"
	}
	return name
}

// Broadcasts returns true if the operator's satellites transmit on the
// given band.
func (sbasType SbasType) Broadcasts(label Label) bool {
	for _, l := range sbasBands[sbasType] {
		if l == label {
			return true
		}
	}
	return false
}
