package auth

import (
	"fmt"
	"io"
	"strings"
)

// WriteCookieGuide prints how to copy the session cookies out of a browser
func WriteCookieGuide(w io.Writer) {
	rule := strings.Repeat("=", 72)
	lines := []string{
		rule,
		"📚 TIKTOK COOKIE EXTRACTION GUIDE",
		rule,
		"",
		"🌐 1. Open https://www.tiktok.com in your browser and log in.",
		"🔧 2. Open Developer Tools (F12, or Cmd+Option+I on macOS).",
		"🍪 3. Application (Chrome) or Storage (Firefox) → Cookies → https://www.tiktok.com",
		"🔑 4. Copy these values:",
		"",
		"   sessionid     required  32 hex characters",
		"   msToken       optional  long base64-like string, rotates often",
		"   tt_webid_v2   optional  numeric id",
		"",
		"💡 The User-Agent should match the browser the cookies came from;",
		"   copy it from any request's headers in the Network tab.",
		"",
		"⚠️  These cookies grant access to the account. Use a secondary account",
		"   and never share them. They are stored encrypted or in your keychain.",
		rule,
		"",
	}
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}

// WriteQuickGuide prints the one-line reminder shown before prompting
func WriteQuickGuide(w io.Writer) {
	fmt.Fprintln(w, "🍪 F12 → Application → Cookies → tiktok.com: need sessionid (msToken, tt_webid_v2 optional). Type 'help' for details.")
}
