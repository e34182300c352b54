package common

import (
	"github.com/urfave/cli"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36"

var (
	DocsURLFlag   = "docs-url"
	UserAgentFlag = "user-agent"
)

func RegisterFlags(f []cli.Flag) []cli.Flag {
	f = append(f,
		cli.StringFlag{
			Name:   DocsURLFlag,
			Usage:  "documentation url for root redirect",
			Value:  "https://github.com/webtor-io/douyin-relay",
			EnvVar: "DOCS_URL",
		},
		cli.StringFlag{
			Name:   UserAgentFlag,
			Usage:  "user agent for upstream requests",
			Value:  DefaultUserAgent,
			EnvVar: "USER_AGENT",
		},
	)

	return f
}
