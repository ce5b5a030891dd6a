package mwlib

import (
	"bufio"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// CookieFile returns the path of the cookie cache for one wiki site,
// identified by family and language code.
func CookieFile(dir, family, code string) string {
	return filepath.Join(dir, "cookies-"+family+"-"+code)
}

// ReadCookies loads cookies saved by WriteCookies. A missing file yields no
// cookies.
func ReadCookies(cookieFile string) ([]*http.Cookie, error) {
	file, err := os.Open(cookieFile)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()
	reader := bufio.NewReader(file)
	cookies := []*http.Cookie{}
	for {
		name, err := reader.ReadString(' ')
		if err == io.EOF {
			return cookies, nil
		}
		if err != nil {
			return nil, err
		}
		name = name[:len(name)-1]
		value, err := reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		value = strings.TrimSuffix(value, "\n")
		cookies = append(cookies, &http.Cookie{Name: name, Value: value})
	}
}

// WriteCookies saves cookies, one "name value" pair per line.
func WriteCookies(cookies []*http.Cookie, cookieFile string) error {
	writer, err := os.Create(cookieFile)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(writer)
	for i := range cookies {
		w.WriteString(cookies[i].Name)
		w.WriteString(" ")
		w.WriteString(cookies[i].Value)
		w.WriteString("\n")
	}
	if err := w.Flush(); err != nil {
		writer.Close()
		return err
	}
	return writer.Close()
}
