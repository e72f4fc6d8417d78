package extraction

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sampleHash = "5891b5b522d5df086d0ff0b110fbd9d21bb4fc7163af34d08286a2e846f6be03"
	sampleTxid = "8b77203cfa8d7a1b3e9342278b8d2bc81dcbcdbcd45f4566aa8f6a78d6a82926"
	sampleXML  = `<node value="r"><left value="a"/><right value="b"/></node>`
)

// sampleCertificateText mimics the text layout extracted from a proof PDF:
// explanation page ending in the tree marker, the serialized tree, a page
// break before the certificate heading (with its fi ligature), then the
// labeled hash / transaction / root hash fields.
func sampleCertificateText() string {
	return "This page allows the reproducibility of your document.\n\n" +
		sampleXML +
		"\n\n\x0cTimestamp Certiﬁcate\n\n" +
		"Hash:\n" + sampleHash + "\nTransaction:\n" + sampleTxid + "\nRoot Hash:\nr\n"
}

func TestExtractFields(t *testing.T) {
	fields, err := ExtractFields(sampleCertificateText())
	require.NoError(t, err)

	assert.Equal(t, sampleXML, fields.ProofXML)
	assert.Equal(t, sampleHash, fields.DocumentHash)
	assert.Equal(t, sampleTxid, fields.Transaction)
}

// TestExtractFieldsTrimsWhitespace covers hash and txid values padded by the
// PDF text layout.
func TestExtractFieldsTrimsWhitespace(t *testing.T) {
	text := "reproducibility of your document.\n\n" +
		sampleXML +
		"\n\n\x0cTimestamp Certiﬁcate\n\n" +
		"Hash:\n  " + sampleHash + " \nTransaction:\n\t" + sampleTxid + "\nRoot Hash:\nr\n"

	fields, err := ExtractFields(text)
	require.NoError(t, err)

	assert.Equal(t, sampleHash, fields.DocumentHash)
	assert.Equal(t, sampleTxid, fields.Transaction)
}

func TestExtractFieldsMissingMarkers(t *testing.T) {
	full := sampleCertificateText()

	testCases := []struct {
		name   string
		mangle func(string) string
	}{
		{"no tree section", func(s string) string {
			return strings.Replace(s, "reproducibility of your document.", "something else entirely.", 1)
		}},
		{"no certificate page", func(s string) string {
			return strings.Replace(s, "Timestamp Certiﬁcate", "Unrelated Heading", 1)
		}},
		{"no hash field", func(s string) string {
			return strings.Replace(s, "Hash:\n"+sampleHash, "Digest: "+sampleHash, 1)
		}},
		{"no transaction field", func(s string) string {
			return strings.Replace(s, "Transaction:\n", "Txn ", 1)
		}},
		{"no root hash terminator", func(s string) string {
			return strings.Replace(s, "Root Hash:\n", "", 1)
		}},
		{"empty text", func(string) string { return "" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fields, err := ExtractFields(tc.mangle(full))
			assert.Nil(t, fields)
			require.ErrorIs(t, err, ErrMalformedDocument)
		})
	}
}
