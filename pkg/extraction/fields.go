package extraction

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrMalformedDocument indicates the document text lacks the markers that
// delimit the proof fields: not a proof certificate, or one in an
// unrecognized layout.
var ErrMalformedDocument = errors.New("document does not contain the expected proof markers")

// Markers delimiting the fields inside a proof certificate. The serialized
// proof tree sits between the closing sentence of the explanation page and
// the page break ahead of the certificate page; note the certificate heading
// carries a typographic fi ligature.
const (
	markerTreeStart = "reproducibility of your document.\n\n"
	markerTreeEnd   = "\n\n\x0cTimestamp Certiﬁcate"

	markerHashStart = "Hash:\n"
	markerHashEnd   = "\nTransaction"

	markerTxStart = "Transaction:\n"
	markerTxEnd   = "\nRoot Hash:\n"
)

// ProofFields are the verification inputs carried by a proof certificate.
type ProofFields struct {
	// ProofXML is the serialized merkle tree, ready for prooftree.Parse.
	ProofXML string

	// DocumentHash is the hash of the timestamped document (not the root).
	DocumentHash string

	// Transaction is the id of the anchoring blockchain transaction.
	Transaction string
}

// ExtractFields locates the proof fields in the extracted document text.
// Returns an error wrapping ErrMalformedDocument, naming the missing marker,
// when the text is not a recognizable proof certificate.
func ExtractFields(text string) (*ProofFields, error) {
	proofXML, err := between(text, markerTreeStart, markerTreeEnd)
	if err != nil {
		return nil, err
	}

	documentHash, err := between(text, markerHashStart, markerHashEnd)
	if err != nil {
		return nil, err
	}

	transaction, err := between(text, markerTxStart, markerTxEnd)
	if err != nil {
		return nil, err
	}

	return &ProofFields{
		ProofXML:     proofXML,
		DocumentHash: strings.TrimSpace(documentHash),
		Transaction:  strings.TrimSpace(transaction),
	}, nil
}

// between returns the text between the first occurrence of start and the
// first occurrence of end after it.
func between(text, start, end string) (string, error) {
	i := strings.Index(text, start)
	if i < 0 {
		return "", errors.Wrapf(ErrMalformedDocument, "missing marker %q", start)
	}
	rest := text[i+len(start):]

	j := strings.Index(rest, end)
	if j < 0 {
		return "", errors.Wrapf(ErrMalformedDocument, "missing marker %q", end)
	}

	return rest[:j], nil
}
