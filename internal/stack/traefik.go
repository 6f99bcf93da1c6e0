package stack

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Static is traefik.yml. Only the parts the stack sets are modelled.
type Static struct {
	Global struct {
		SendAnonymousUsage bool `yaml:"sendAnonymousUsage"`
	} `yaml:"global"`
	API struct {
		Dashboard bool `yaml:"dashboard"`
	} `yaml:"api"`
	Ping                  map[string]any          `yaml:"ping"`
	Log                   map[string]string       `yaml:"log"`
	EntryPoints           map[string]EntryPoint   `yaml:"entryPoints"`
	CertificatesResolvers map[string]CertResolver `yaml:"certificatesResolvers"`
	Providers             Providers               `yaml:"providers"`
}

type EntryPoint struct {
	Address string          `yaml:"address"`
	HTTP    *EntryPointHTTP `yaml:"http,omitempty"`
}

type EntryPointHTTP struct {
	Redirections *Redirections `yaml:"redirections,omitempty"`
}

type Redirections struct {
	EntryPoint struct {
		To     string `yaml:"to"`
		Scheme string `yaml:"scheme"`
	} `yaml:"entryPoint"`
}

type CertResolver struct {
	ACME struct {
		Email        string   `yaml:"email"`
		Storage      string   `yaml:"storage"`
		TLSChallenge struct{} `yaml:"tlsChallenge"`
	} `yaml:"acme"`
}

type Providers struct {
	Docker struct {
		ExposedByDefault bool   `yaml:"exposedByDefault"`
		Network          string `yaml:"network"`
	} `yaml:"docker"`
	File struct {
		Directory string `yaml:"directory"`
		Watch     bool   `yaml:"watch"`
	} `yaml:"file"`
}

// StaticConfig builds the entry points, the ACME resolver and both
// providers.
func StaticConfig(network, email string) Static {
	var s Static
	s.API.Dashboard = true
	s.Ping = map[string]any{}
	s.Log = map[string]string{"level": "INFO"}

	web := EntryPoint{Address: ":80", HTTP: &EntryPointHTTP{Redirections: &Redirections{}}}
	web.HTTP.Redirections.EntryPoint.To = "websecure"
	web.HTTP.Redirections.EntryPoint.Scheme = "https"
	s.EntryPoints = map[string]EntryPoint{
		"web":       web,
		"websecure": {Address: ":443"},
	}

	var le CertResolver
	le.ACME.Email = email
	le.ACME.Storage = "/acme.json"
	s.CertificatesResolvers = map[string]CertResolver{"letsencrypt": le}

	s.Providers.Docker.Network = network
	s.Providers.File.Directory = "/etc/traefik/dynamic"
	s.Providers.File.Watch = true
	return s
}

// Dynamic is one file under traefik/dynamic.
type Dynamic struct {
	HTTP *DynamicHTTP `yaml:"http,omitempty"`
	TLS  *DynamicTLS  `yaml:"tls,omitempty"`
}

type DynamicHTTP struct {
	Middlewares map[string]Middleware `yaml:"middlewares"`
}

type Middleware struct {
	Headers          *Headers          `yaml:"headers,omitempty"`
	BasicAuth        *BasicAuth        `yaml:"basicAuth,omitempty"`
	ReplacePathRegex *ReplacePathRegex `yaml:"replacePathRegex,omitempty"`
	RedirectScheme   *RedirectScheme   `yaml:"redirectScheme,omitempty"`
}

type Headers struct {
	STSSeconds           int    `yaml:"stsSeconds"`
	STSIncludeSubdomains bool   `yaml:"stsIncludeSubdomains"`
	STSPreload           bool   `yaml:"stsPreload"`
	FrameDeny            bool   `yaml:"frameDeny"`
	ContentTypeNosniff   bool   `yaml:"contentTypeNosniff"`
	BrowserXSSFilter     bool   `yaml:"browserXssFilter"`
	ReferrerPolicy       string `yaml:"referrerPolicy"`
}

type BasicAuth struct {
	Users []string `yaml:"users"`
}

type ReplacePathRegex struct {
	Regex       string `yaml:"regex"`
	Replacement string `yaml:"replacement"`
}

type RedirectScheme struct {
	Scheme    string `yaml:"scheme"`
	Permanent bool   `yaml:"permanent"`
}

type DynamicTLS struct {
	Options map[string]TLSOptions `yaml:"options"`
}

type TLSOptions struct {
	MinVersion   string   `yaml:"minVersion"`
	CipherSuites []string `yaml:"cipherSuites"`
	SniStrict    bool     `yaml:"sniStrict"`
}

// Middlewares returns the middleware file. The dashboard password is
// written as a bcrypt hash.
func Middlewares(user, password string) (Dynamic, error) {
	if user == "" || password == "" {
		return Dynamic{}, fmt.Errorf("dashboard credentials are not set")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Dynamic{}, fmt.Errorf("hash dashboard password: %w", err)
	}

	return Dynamic{HTTP: &DynamicHTTP{Middlewares: map[string]Middleware{
		"secure-headers": {Headers: &Headers{
			STSSeconds:           15552000,
			STSIncludeSubdomains: true,
			STSPreload:           true,
			FrameDeny:            true,
			ContentTypeNosniff:   true,
			BrowserXSSFilter:     true,
			ReferrerPolicy:       "no-referrer",
		}},
		"dashboard-auth": {BasicAuth: &BasicAuth{
			Users: []string{user + ":" + string(hash)},
		}},
		"nextcloud-dav": {ReplacePathRegex: &ReplacePathRegex{
			Regex:       "^/.well-known/ca(l|rd)dav",
			Replacement: "/remote.php/dav/",
		}},
		"https-redirect": {RedirectScheme: &RedirectScheme{
			Scheme:    "https",
			Permanent: true,
		}},
	}}}, nil
}

// TLSConfig returns the "modern" TLS option set referenced by the app router.
func TLSConfig() Dynamic {
	return Dynamic{TLS: &DynamicTLS{Options: map[string]TLSOptions{
		"modern": {
			MinVersion: "VersionTLS12",
			CipherSuites: []string{
				"TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384",
				"TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384",
				"TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305",
				"TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305",
				"TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256",
				"TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256",
			},
			SniStrict: true,
		},
	}}}
}
