package registry

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"bankrot-check/internal/challenge"
	"bankrot-check/internal/components/telemetry"
	"bankrot-check/internal/roster"

	"github.com/stretchr/testify/require"
)

const (
	seedKey = "0123456789abcdeffedcba9876543210"
	seedIV  = "00112233445566778899aabbccddeeff"
)

func challengePage(t testing.TB, cookie []byte) string {
	t.Helper()
	key, _ := hex.DecodeString(seedKey)
	iv, _ := hex.DecodeString(seedIV)
	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	c := make([]byte, len(cookie))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(c, cookie)

	return fmt.Sprintf(`<html><head><script type="text/javascript" src="/aes.min.js"></script></head>
<body><script>function toNumbers(d){var e=[];d.replace(/(..)/g,function(d){e.push(parseInt(d,16))});return e}
var a=toNumbers("%s"),b=toNumbers("%s"),c=toNumbers("%x");
document.cookie="bankrotcookie="+toHex(slowAES.decrypt(c,2,a,b))+"; path=/";location.href=location.href;</script>
</body></html>`, seedKey, seedIV, c)
}

const malformedChallengePage = `<html><head><script type="text/javascript" src="/aes.min.js"></script></head>
<body><script>var a=toNumbers("00"),b=toNumbers("11");</script></body></html>`

const tableHeader = `<tr><th>Категория</th><th>Должник</th><th>ИНН</th><th>ОГРНИП</th><th>СНИЛС</th><th>Регион</th><th>Адрес</th></tr>`

func resultPage(rows ...string) string {
	body := tableHeader
	for _, row := range rows {
		body += row
	}
	return fmt.Sprintf(`<html><body><form>
<table class="bank" id="ctl00_cphBody_gvDebtors" cellspacing="0">%s</table>
</form></body></html>`, body)
}

const petrovRow = `<tr><td>Физическое лицо</td><td><a href="/PrivatePersonCard.aspx?ID=1">ПЕТРОВ СЕРГЕЙ ИЛЬИЧ</a></td>
<td>772900000000</td><td></td><td>123-456-789 00</td><td>г. Москва</td><td>г. Москва, ул. Ленина, 1</td></tr>`

// scriptedServer answers each request with the next page in `pages`, the
// last page is repeated once the script runs out.
type scriptedServer struct {
	*httptest.Server

	mutex    sync.Mutex
	pages    []func(w http.ResponseWriter, r *http.Request)
	requests []*http.Request
}

func newScriptedServer(t testing.TB, pages ...func(w http.ResponseWriter, r *http.Request)) *scriptedServer {
	s := &scriptedServer{pages: pages}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mutex.Lock()
		idx := min(len(s.requests), len(s.pages)-1)
		s.requests = append(s.requests, r.Clone(context.Background()))
		handler := s.pages[idx]
		s.mutex.Unlock()
		handler(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *scriptedServer) Requests() []*http.Request {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return append([]*http.Request(nil), s.requests...)
}

func page(body string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(body))
	}
}

func status(code int) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	}
}

func repeat(n int, handler func(w http.ResponseWriter, r *http.Request)) []func(w http.ResponseWriter, r *http.Request) {
	out := make([]func(w http.ResponseWriter, r *http.Request), n)
	for i := range out {
		out[i] = handler
	}
	return out
}

// countingDeriver wraps the AES deriver and counts its calls.
type countingDeriver struct {
	calls int
	modes []challenge.Mode
}

func (d *countingDeriver) Derive(seeds challenge.Seeds, mode challenge.Mode) (string, error) {
	d.calls++
	d.modes = append(d.modes, mode)
	return challenge.AESDeriver{}.Derive(seeds, mode)
}

type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func newTestSession(t testing.TB, endpoint string, deriver challenge.Deriver, sleeper *sleepRecorder) (*Session, *telemetry.Recorder) {
	t.Helper()
	rec := &telemetry.Recorder{}
	session, err := NewSession(Options{
		Endpoint:  endpoint,
		Timeout:   5 * time.Second,
		Deriver:   deriver,
		Telemetry: rec,
		Sleep:     sleeper.Sleep,
	})
	require.NoError(t, err)
	return session, rec
}

func mustSubject(t testing.TB, last, first, middle string) roster.Subject {
	t.Helper()
	s, err := roster.NewSubject(last, first, middle)
	require.NoError(t, err)
	return s
}
