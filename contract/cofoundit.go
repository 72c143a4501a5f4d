package contract

import (
	_ "embed"
)

var (
	//go:embed CofounditICO.json
	CofounditICO []byte
	//go:embed CofounditToken.json
	CofounditToken []byte
)

// NewCofounditICOArtifact returns the artifact of the ICO sale contract.
func NewCofounditICOArtifact() *Artifact {
	return mustParse(CofounditICO)
}

// NewCofounditTokenArtifact returns the artifact of the CFI token contract.
func NewCofounditTokenArtifact() *Artifact {
	return mustParse(CofounditToken)
}

// Builtin returns the embedded artifact with the given contract name.
func Builtin(name string) (*Artifact, bool) {
	switch name {
	case "CofounditICO", "ico":
		return NewCofounditICOArtifact(), true
	case "CofounditToken", "token":
		return NewCofounditTokenArtifact(), true
	default:
		return nil, false
	}
}

func mustParse(json []byte) *Artifact {
	if parsed, err := ParseArtifact(json); err != nil {
		panic(err)
	} else {
		return parsed
	}
}
