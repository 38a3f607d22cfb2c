package transferio

import (
	"net"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DatastoreParams identifies one file on a hypervisor-managed datastore,
// plus everything needed to reach it. Parameters are fixed at stream
// construction and never change for the stream's lifetime.
type DatastoreParams struct {
	Host       string
	Datacenter string
	Datastore  string
	// FilePath is relative to the datastore root, e.g. "vm1/disk.vmdk".
	FilePath string
	// Scheme must be "http" or "https".
	Scheme string
	// Cookies carries the authenticated session. Only the first cookie is
	// sent; see CookieHeader.
	Cookies []*http.Cookie
}

func (p DatastoreParams) validate() error {
	if p.Scheme != "http" && p.Scheme != "https" {
		return errors.Errorf("unsupported datastore URL scheme %q (must be http or https)", p.Scheme)
	}
	return nil
}

// SoapURL returns the scheme://host base for datastore file operations,
// bracketing the host when it is a valid IPv6 literal. Hosts that do not
// parse as IPv6 are used unbracketed as-is; the check never fails.
func SoapURL(scheme, host string) string {
	if ip := net.ParseIP(host); ip != nil && ip.To4() == nil {
		return scheme + "://[" + host + "]"
	}
	return scheme + "://" + host
}

// writeURL builds the PUT target. The file path is passed through verbatim,
// unescaped; the datastore expects it that way on the write side. Do not
// unify this with readURL.
func (p DatastoreParams) writeURL() string {
	return SoapURL(p.Scheme, p.Host) + "/folder/" + p.FilePath + "?" + p.query()
}

// readURL builds the GET target with the file path percent-escaped, keeping
// the path separators.
func (p DatastoreParams) readURL() string {
	escaped := (&url.URL{Path: p.FilePath}).EscapedPath()
	return SoapURL(p.Scheme, p.Host) + "/folder/" + escaped + "?" + p.query()
}

func (p DatastoreParams) query() string {
	return url.Values{
		"dcPath": {p.Datacenter},
		"dsName": {p.Datastore},
	}.Encode()
}

// CookieHeader serializes the session cookies into a Cookie header value.
// Only the first cookie is used; an empty collection yields an empty
// string. The datastore session contract authenticates on a single cookie,
// so the rest are deliberately ignored.
func CookieHeader(cookies []*http.Cookie) string {
	if len(cookies) == 0 {
		return ""
	}
	return cookies[0].Name + "=" + cookies[0].Value
}

func orStandardLogger(log logrus.FieldLogger) logrus.FieldLogger {
	if log == nil {
		return logrus.StandardLogger()
	}
	return log
}
