package entities

import (
	"fmt"
	"strings"
)

// BarcodeType identifies how a card code is rendered
type BarcodeType string

const (
	BarcodeEAN13   BarcodeType = "EAN13"
	BarcodeEAN8    BarcodeType = "EAN8"
	BarcodeCODE128 BarcodeType = "CODE128"
	BarcodeCODE39  BarcodeType = "CODE39"
	BarcodeQRCode  BarcodeType = "QRCODE"
)

// BarcodeTypes lists the supported types in display order
var BarcodeTypes = []BarcodeType{BarcodeEAN13, BarcodeEAN8, BarcodeCODE128, BarcodeCODE39, BarcodeQRCode}

// Format returns the renderer format name for the barcode type
func (b BarcodeType) Format() string {
	switch b {
	case BarcodeEAN13:
		return "ean_13"
	case BarcodeEAN8:
		return "ean_8"
	case BarcodeCODE128:
		return "code_128"
	case BarcodeCODE39:
		return "code_39"
	case BarcodeQRCode:
		return "qr_code"
	default:
		return ""
	}
}

// ParseBarcodeType accepts either the type name or its renderer format
func ParseBarcodeType(s string) (BarcodeType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return BarcodeCODE128, nil
	}
	for _, t := range BarcodeTypes {
		if strings.EqualFold(s, string(t)) || strings.EqualFold(s, t.Format()) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unsupported barcode type %q", s)
}

const code39Charset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ -.$/+%"

// NormalizeCode validates code for the barcode type and returns the form to
// store. EAN codes given without their check digit get it appended.
func (b BarcodeType) NormalizeCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", fmt.Errorf("code is required")
	}

	switch b {
	case BarcodeEAN13:
		return normalizeEAN(code, 13)
	case BarcodeEAN8:
		return normalizeEAN(code, 8)
	case BarcodeCODE39:
		code = strings.ToUpper(code)
		for _, r := range code {
			if !strings.ContainsRune(code39Charset, r) {
				return "", fmt.Errorf("character %q is not allowed in CODE39", r)
			}
		}
		return code, nil
	case BarcodeCODE128:
		for _, r := range code {
			if r < 32 || r > 126 {
				return "", fmt.Errorf("CODE128 only supports printable ASCII")
			}
		}
		return code, nil
	case BarcodeQRCode:
		return code, nil
	default:
		return "", fmt.Errorf("unsupported barcode type %q", string(b))
	}
}

func normalizeEAN(code string, length int) (string, error) {
	for _, r := range code {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("EAN codes must contain digits only")
		}
	}

	switch len(code) {
	case length - 1:
		return code + string(rune('0'+eanCheckDigit(code))), nil
	case length:
		if int(code[length-1]-'0') != eanCheckDigit(code[:length-1]) {
			return "", fmt.Errorf("invalid EAN check digit")
		}
		return code, nil
	default:
		return "", fmt.Errorf("EAN-%d codes need %d or %d digits", length, length-1, length)
	}
}

// eanCheckDigit weights digits 3,1,3,... from the right.
func eanCheckDigit(payload string) int {
	sum := 0
	for i := len(payload) - 1; i >= 0; i-- {
		d := int(payload[i] - '0')
		if (len(payload)-1-i)%2 == 0 {
			d *= 3
		}
		sum += d
	}
	return (10 - sum%10) % 10
}
