package ir

// ContractSpec is a compiled contract definition.
type ContractSpec struct {
	Name       string                 `json:"name"`
	Purpose    string                 `json:"purpose"`
	Records    []RecordSchema         `json:"records"`
	Methods    []MethodSig            `json:"methods"`
	Principles []OperationalPrinciple `json:"operational_principles"`
}

// Method returns the signature for a wire method name.
func (c ContractSpec) Method(call string) (MethodSig, bool) {
	for _, m := range c.Methods {
		if m.Call == call {
			return m, true
		}
	}
	return MethodSig{}, false
}

// MethodSig describes one callable method. Args are positional, in declaration order.
type MethodSig struct {
	Name    string       `json:"name"` // CUE label, e.g. "proposeTruth"
	Call    string       `json:"call"` // wire name, e.g. "propose-truth"
	Args    []NamedArg   `json:"args"`
	Outputs []OutputCase `json:"outputs"`
}

// NamedArg is a positional parameter.
type NamedArg struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// OutputCase is one possible outcome variant of a method ("Success", "NotFound", ...).
type OutputCase struct {
	Case   string            `json:"case"`
	Fields map[string]string `json:"fields"`
}

// RecordSchema describes the stored payload of a record kind.
type RecordSchema struct {
	Name   string     `json:"name"`
	Fields []NamedArg `json:"fields"`
}

// OperationalPrinciple is a behavioural statement, optionally backed by a scenario file.
type OperationalPrinciple struct {
	Description string `json:"description"`
	Scenario    string `json:"scenario,omitempty"`
}

// Call is a journaled method call.
type Call struct {
	ID            string `json:"id"` // content addressed, see CallID
	FlowToken     string `json:"flow_token"`
	Contract      string `json:"contract"` // empty when the method is unknown
	Method        string `json:"method"`
	Args          List   `json:"args"`
	Seq           int64  `json:"seq"`
	SpecHash      string `json:"spec_hash"`
	EngineVersion string `json:"engine_version"`
	IRVersion     string `json:"ir_version"`
}

// Outcome is the journaled result of exactly one Call.
type Outcome struct {
	ID     string `json:"id"`
	CallID string `json:"call_id"`
	Case   string `json:"case"` // "Success" or an error case
	Result Object `json:"result"`
	Seq    int64  `json:"seq"`
}
