package platform

import (
	"os"
	"slices"
	"strings"
)

// Provider names a hosted CI product.
type Provider string

const (
	None           Provider = ""
	Travis         Provider = "travis"
	AppVeyor       Provider = "appveyor"
	AzurePipelines Provider = "azure"
	CircleCI       Provider = "circleci"
	GitHubActions  Provider = "github"
	Jenkins        Provider = "jenkins"
)

// CIProviderInfo reports which CI product, if any, launched the process.
type CIProviderInfo interface {
	Current() Provider
	Is(p Provider) bool
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

type envProvider struct {
	lookup LookupFunc
}

// DetectProvider inspects the process environment.
func DetectProvider() CIProviderInfo {
	return envProvider{lookup: os.LookupEnv}
}

// ProviderFromEnv inspects an arbitrary environment, mainly for tests.
func ProviderFromEnv(env map[string]string) CIProviderInfo {
	return envProvider{lookup: func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}}
}

func (e envProvider) isTrue(key string) bool {
	v, ok := e.lookup(key)
	return ok && strings.EqualFold(v, "true")
}

func (e envProvider) isSet(key string) bool {
	v, ok := e.lookup(key)
	return ok && v != ""
}

func (e envProvider) Current() Provider {
	switch {
	case e.isTrue("TRAVIS"):
		return Travis
	case e.isTrue("APPVEYOR"):
		return AppVeyor
	case e.isSet("AZURE_HTTP_USER_AGENT"), e.isTrue("TF_BUILD"):
		return AzurePipelines
	case e.isTrue("CIRCLECI"):
		return CircleCI
	case e.isTrue("GITHUB_ACTIONS"):
		return GitHubActions
	case e.isSet("JENKINS_URL"):
		return Jenkins
	}
	return None
}

func (e envProvider) Is(p Provider) bool {
	return p != None && e.Current() == p
}

// IsConstrained reports whether the current provider is one of the names in
// constrained, the providers whose workers run out of memory when linking
// with unbounded parallelism.
func IsConstrained(info CIProviderInfo, constrained []string) bool {
	cur := info.Current()
	if cur == None {
		return false
	}
	return slices.ContainsFunc(constrained, func(name string) bool {
		return strings.EqualFold(name, string(cur))
	})
}
