package contract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// DefaultNetwork is the deployment record used when no network id is given.
const DefaultNetwork = "default"

// Artifact is a compiled contract: its ABI, deployable bytecode and the
// deployment records of every network it was migrated to.
type Artifact struct {
	ContractName  string
	ABI           abi.ABI
	RawABI        json.RawMessage
	Bytecode      string
	GeneratedWith string
	Networks      map[string]Deployment

	events map[common.Hash]abi.Event
}

// Deployment is the per-network record of an artifact.
type Deployment struct {
	Address   string
	UpdatedAt int64
	Links     map[string]string
	Events    map[common.Hash]abi.Event
}

type rawArtifact struct {
	ContractName   string                   `json:"contract_name"`
	ContractName2  string                   `json:"contractName"`
	ABI            json.RawMessage          `json:"abi"`
	Bytecode       json.RawMessage          `json:"bytecode"`
	UnlinkedBinary string                   `json:"unlinked_binary"`
	GeneratedWith  string                   `json:"generated_with"`
	Networks       map[string]rawDeployment `json:"networks"`
}

type rawDeployment struct {
	Address   string                     `json:"address"`
	UpdatedAt int64                      `json:"updated_at"`
	Links     map[string]string          `json:"links"`
	Events    map[string]json.RawMessage `json:"events"`
}

// ParseArtifact decodes a truffle-contract artifact. Hardhat and Foundry
// artifacts are accepted as well; they simply carry no network records.
func ParseArtifact(data []byte) (*Artifact, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("artifact is empty")
	}

	var raw rawArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid artifact JSON: %w", err)
	}
	if len(raw.ABI) < 2 || raw.ABI[0] != '[' {
		return nil, errors.New("artifact has no \"abi\" array")
	}

	parsed, err := abi.JSON(bytes.NewReader(raw.ABI))
	if err != nil {
		return nil, fmt.Errorf("parsing artifact ABI: %w", err)
	}
	if len(parsed.Methods) == 0 && len(parsed.Events) == 0 {
		return nil, errors.New("artifact ABI has no functions or events")
	}

	bytecode, err := extractBytecode(raw.Bytecode)
	if err != nil {
		return nil, err
	}
	if bytecode == "" {
		bytecode = strings.TrimSpace(raw.UnlinkedBinary)
	}
	if bytecode != "" && !strings.HasPrefix(bytecode, "0x") {
		bytecode = "0x" + bytecode
	}

	name := raw.ContractName
	if name == "" {
		name = raw.ContractName2
	}

	a := &Artifact{
		ContractName:  name,
		ABI:           parsed,
		RawABI:        raw.ABI,
		Bytecode:      bytecode,
		GeneratedWith: raw.GeneratedWith,
		Networks:      make(map[string]Deployment, len(raw.Networks)),
		events:        make(map[common.Hash]abi.Event),
	}
	for _, ev := range parsed.Events {
		a.events[ev.ID] = ev
	}

	for id, rd := range raw.Networks {
		d := Deployment{
			Address:   rd.Address,
			UpdatedAt: rd.UpdatedAt,
			Links:     rd.Links,
			Events:    make(map[common.Hash]abi.Event, len(rd.Events)),
		}
		if d.Links == nil {
			d.Links = map[string]string{}
		}
		for topic, desc := range rd.Events {
			ev, err := parseEvent(desc)
			if err != nil {
				return nil, fmt.Errorf("network %s: event %s: %w", id, topic, err)
			}
			d.Events[common.HexToHash(topic)] = ev
			a.events[common.HexToHash(topic)] = ev
		}
		a.Networks[id] = d
	}

	return a, nil
}

// LoadArtifact reads and parses an artifact file.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read artifact file: %w", err)
	}
	a, err := ParseArtifact(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// Events returns the topic table of the artifact. The returned map is a copy.
func (a *Artifact) Events() map[common.Hash]abi.Event {
	out := make(map[common.Hash]abi.Event, len(a.events))
	for topic, ev := range a.events {
		out[topic] = ev
	}
	return out
}

// Event looks up an event descriptor by its topic hash.
func (a *Artifact) Event(topic common.Hash) (abi.Event, bool) {
	ev, ok := a.events[topic]
	return ev, ok
}

// NetworkIDs lists the network ids with a deployment record, sorted.
func (a *Artifact) NetworkIDs() []string {
	ids := make([]string, 0, len(a.Networks))
	for id := range a.Networks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// extractBytecode handles both artifact flavours:
//   - truffle/Hardhat: "bytecode": "0x6060..."
//   - Foundry:         "bytecode": {"object": "0x6060..."}
func extractBytecode(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return strings.TrimSpace(str), nil
	}

	var obj struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return strings.TrimSpace(obj.Object), nil
	}

	return "", errors.New("bytecode field is neither a hex string nor a {\"object\":\"0x...\"} object")
}

// parseEvent turns a single event descriptor into an abi.Event by parsing it
// as a one-entry ABI.
func parseEvent(desc json.RawMessage) (abi.Event, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	buf.Write(desc)
	buf.WriteByte(']')

	parsed, err := abi.JSON(&buf)
	if err != nil {
		return abi.Event{}, err
	}
	for _, ev := range parsed.Events {
		return ev, nil
	}
	return abi.Event{}, errors.New("descriptor is not an event")
}
