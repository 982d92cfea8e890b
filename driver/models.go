package driver

// Version is the protocol level requested at login.
type Version int

const (
	// VersionDefault lets the dialect pick its native protocol level.
	VersionDefault Version = iota
	// Version100 is the level bulk-copy operations require.
	Version100
)

func (v Version) String() string {
	switch v {
	case Version100:
		return "10.0"
	default:
		return "default"
	}
}

// Login describes how to authenticate one transport.
type Login struct {
	Host     string
	User     string
	Password string
	AppName  string

	// Version and BulkCopy are negotiated before the transport opens.
	Version  Version
	BulkCopy bool
}

// Column describes one column of a result set.
type Column struct {
	Name     string
	Type     TypeCode
	TypeName string
	// Length is the declared length; zero when the server does not report one.
	Length   int64
	Nullable bool
}

// ResultStatus is the outcome of Results.NextResult.
type ResultStatus int

const (
	ResultSucceed ResultStatus = iota
	NoMoreResults
	ResultFail
)

func (s ResultStatus) String() string {
	switch s {
	case ResultSucceed:
		return "SUCCEED"
	case NoMoreResults:
		return "NO_MORE_RESULTS"
	case ResultFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// RowStatus is the outcome of Results.NextRow.
type RowStatus int

const (
	RegularRow RowStatus = iota
	NoMoreRows
	BufferFull
	RowFail
)

func (s RowStatus) String() string {
	switch s {
	case RegularRow:
		return "REG_ROW"
	case NoMoreRows:
		return "NO_MORE_ROWS"
	case BufferFull:
		return "BUF_FULL"
	case RowFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// VarLenTerminated marks a bound field whose length is signalled by a
// terminator instead of a byte count.
const VarLenTerminated = -1

// Bind is one field of a bulk-copy row.
type Bind struct {
	// Column is the 1-based table column ordinal.
	Column int
	Data   []byte
	// Length is the byte count to transfer, or VarLenTerminated.
	Length int
	Type   TypeCode
}

// Payload returns the bytes the server should read for this field.
func (b Bind) Payload() []byte {
	if b.Length == VarLenTerminated {
		for i, c := range b.Data {
			if c == 0 {
				return b.Data[:i]
			}
		}
		return b.Data
	}
	if b.Length < len(b.Data) {
		return b.Data[:b.Length]
	}
	return b.Data
}
