package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"

	mwclient "cgt.name/pkg/go-mwclient"
	goflags "github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"github.com/garyhouston/interwiki/family"
	"github.com/garyhouston/interwiki/mwlib"
)

type flags struct {
	Operator   string `long:"operator" env:"interwiki_operator" description:"Operator's email address or Wiki user name" default:"nobody@example.com"`
	Family     string `long:"family" env:"interwiki_family" description:"Wiki family" default:"wikipedia"`
	Lang       string `long:"lang" env:"interwiki_lang" description:"Language code of the site to log in to" default:"en"`
	FamilyFile string `long:"familyfile" env:"interwiki_familyfile" description:"YAML file replacing the built-in family tables"`
}

func getFlags() flags {
	var flags flags
	parser := goflags.NewParser(&flags, goflags.HelpFlag)
	args, err := parser.Parse()
	if err != nil {
		log.Fatal(err)
	}
	if len(args) != 0 {
		log.Fatal("Unexpected argument.")
	}
	return flags
}

func site(flags flags) *family.Site {
	var reg *family.Registry
	var err error
	if flags.FamilyFile != "" {
		reg, err = family.LoadFile(flags.FamilyFile)
	} else {
		reg, err = family.Default()
	}
	if err != nil {
		log.Fatal(err)
	}
	s, err := reg.Site(flags.Family, flags.Lang)
	if err != nil {
		log.Fatal(err)
	}
	return s
}

// This login program can be run before using the main bot, for sites where
// the bot has no password in its environment. It saves cookies into a file
// in the bot's directory.
func main() {
	flags := getFlags()
	s := site(flags)
	dir := mwlib.GetWorkingDir()
	godotenv.Load(filepath.Join(dir, ".env"))

	client, err := mwclient.New(s.APIURL(), "wikilogin "+flags.Operator)
	if err != nil {
		panic(err)
	}

	user, password := os.Getenv("interwiki_username"), os.Getenv("interwiki_password")
	scanner := bufio.NewScanner(os.Stdin)
	if user == "" {
		fmt.Print("Username: ")
		scanner.Scan()
		user = scanner.Text()
	}
	if password == "" {
		fmt.Print("Password: ")
		scanner.Scan()
		password = scanner.Text()
	}

	client.Maxlag.On = true

	err = client.Login(user, password)
	if err != nil {
		log.Fatal(err)
	}
	cookieFile := mwlib.CookieFile(dir, s.Family, s.Code)
	if err := mwlib.WriteCookies(client.DumpCookies(), cookieFile); err != nil {
		log.Fatal(err)
	}
	fmt.Println("Cookies saved to", cookieFile)
}
