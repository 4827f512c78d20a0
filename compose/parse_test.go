package compose

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkingston/fizz/internal/values"
)

func TestParseMinimalService(t *testing.T) {
	doc := `
services:
  web:
    image: nginx:latest
    ports:
      - "8080:80"
`
	file, diags, err := Parse([]byte(doc), nil)
	require.NoError(t, err)
	require.False(t, diags.HasErrors())
	require.NotNil(t, file)

	svc, ok := file.Services.Get("web")
	require.True(t, ok)
	assert.Equal(t, "nginx:latest", svc.Image)
	require.Len(t, svc.Ports, 1)
	assert.Equal(t, values.Port{Host: 8080, Container: 80, Protocol: values.TCP}, svc.Ports[0])
}

func TestParsePreservesServiceOrder(t *testing.T) {
	doc := `
services:
  c:
    image: c
  a:
    image: a
  b:
    image: b
`
	file, diags, err := Parse([]byte(doc), nil)
	require.NoError(t, err)
	require.False(t, diags.HasErrors())
	assert.Equal(t, []string{"c", "a", "b"}, file.Services.Keys())
}

func TestParseEnvironmentBothForms(t *testing.T) {
	doc := `
services:
  web:
    image: nginx
    environment:
      FOO: bar
      EMPTY:
  worker:
    image: worker
    environment:
      - "A=1"
      - "B=2"
`
	file, diags, err := Parse([]byte(doc), nil)
	require.NoError(t, err)
	require.False(t, diags.HasErrors())

	web, _ := file.Services.Get("web")
	foo, ok := web.Environment.Get("FOO")
	require.True(t, ok)
	assert.Equal(t, "bar", foo)
	empty, ok := web.Environment.Get("EMPTY")
	require.True(t, ok)
	assert.Equal(t, "", empty)

	worker, _ := file.Services.Get("worker")
	a, _ := worker.Environment.Get("A")
	assert.Equal(t, "1", a)
}

func TestParseInterpolation(t *testing.T) {
	doc := `
services:
  web:
    image: "myapp:${TAG}"
    environment:
      HOST: "${HOST:-localhost}"
`
	env := map[string]string{"TAG": "v2"}
	file, diags, err := Parse([]byte(doc), env)
	require.NoError(t, err)
	require.False(t, diags.HasErrors())

	web, _ := file.Services.Get("web")
	assert.Equal(t, "myapp:v2", web.Image)
	host, _ := web.Environment.Get("HOST")
	assert.Equal(t, "localhost", host)
}

func TestParseDependsOnBothForms(t *testing.T) {
	doc := `
services:
  db:
    image: postgres
  cache:
    image: redis
  web:
    image: nginx
    depends_on:
      - db
  worker:
    image: worker
    depends_on:
      db:
        condition: service_healthy
      cache:
        condition: service_started
`
	file, diags, err := Parse([]byte(doc), nil)
	require.NoError(t, err)
	require.False(t, diags.HasErrors())

	web, _ := file.Services.Get("web")
	require.Len(t, web.DependsOn, 1)
	assert.Equal(t, "db", web.DependsOn[0].Service)
	assert.Equal(t, values.ServiceStarted, web.DependsOn[0].Condition)

	worker, _ := file.Services.Get("worker")
	require.Len(t, worker.DependsOn, 2)
	assert.Equal(t, values.ServiceHealthy, worker.DependsOn[0].Condition)
}

func TestParseHealthcheckDefaults(t *testing.T) {
	doc := `
services:
  web:
    image: nginx
    healthcheck:
      test: ["CMD", "curl", "-f", "http://localhost"]
`
	file, diags, err := Parse([]byte(doc), nil)
	require.NoError(t, err)
	require.False(t, diags.HasErrors())

	web, _ := file.Services.Get("web")
	require.NotNil(t, web.Healthcheck)
	assert.Equal(t, []string{"CMD", "curl", "-f", "http://localhost"}, web.Healthcheck.TestCmd)
	assert.Equal(t, DefaultHealthcheckInterval, web.Healthcheck.Interval)
	assert.Equal(t, DefaultHealthcheckRetries, web.Healthcheck.Retries)
}

func TestParseBuildScalarAndMapping(t *testing.T) {
	doc := `
services:
  a:
    build: ./a
  b:
    build:
      context: ./b
      dockerfile: Dockerfile.b
      target: builder
      args:
        VERSION: "1.0"
`
	file, diags, err := Parse([]byte(doc), nil)
	require.NoError(t, err)
	require.False(t, diags.HasErrors())

	a, _ := file.Services.Get("a")
	require.NotNil(t, a.Build)
	assert.Equal(t, "./a", a.Build.Context)

	b, _ := file.Services.Get("b")
	require.NotNil(t, b.Build)
	assert.Equal(t, "./b", b.Build.Context)
	assert.Equal(t, "builder", b.Build.Target)
	v, ok := b.Build.Args.Get("VERSION")
	require.True(t, ok)
	assert.Equal(t, "1.0", v)
}

func TestParseVolumesAndNetworksTopLevel(t *testing.T) {
	doc := `
services:
  web:
    image: nginx
    volumes:
      - "data:/var/lib/data:ro"
volumes:
  data:
    driver: local
    external: true
networks:
  default:
    driver: bridge
`
	file, diags, err := Parse([]byte(doc), nil)
	require.NoError(t, err)
	require.False(t, diags.HasErrors())

	web, _ := file.Services.Get("web")
	require.Len(t, web.Volumes, 1)
	assert.Equal(t, "data", web.Volumes[0].Source)
	assert.True(t, web.Volumes[0].ReadOnly)

	vol, ok := file.Volumes.Get("data")
	require.True(t, ok)
	assert.Equal(t, "local", vol.Driver)
	assert.True(t, vol.External)

	net, ok := file.Networks.Get("default")
	require.True(t, ok)
	assert.Equal(t, "bridge", net.Driver)
}

func TestParseAnchorAndAliasInEnvironment(t *testing.T) {
	doc := `
services:
  web:
    image: nginx
    environment: &shared
      FOO: bar
  worker:
    image: worker
    environment: *shared
`
	file, diags, err := Parse([]byte(doc), nil)
	require.NoError(t, err)
	require.False(t, diags.HasErrors())

	worker, _ := file.Services.Get("worker")
	v, ok := worker.Environment.Get("FOO")
	require.True(t, ok)
	assert.Equal(t, "bar", v)
}

func TestParseUnknownServiceKeyWarns(t *testing.T) {
	doc := `
services:
  web:
    image: nginx
    totally_unknown_key: 1
`
	file, diags, err := Parse([]byte(doc), nil)
	require.NoError(t, err)
	require.False(t, diags.HasErrors())
	require.NotNil(t, file)
	assert.Greater(t, diags.Count(), 0)

	var sawWarning bool
	for _, d := range diags.Items() {
		if strings.Contains(d.Message, "totally_unknown_key") {
			sawWarning = true
		}
	}
	assert.True(t, sawWarning)
}

func TestParseExtensionKeysSilentByDefault(t *testing.T) {
	doc := `
services:
  web:
    image: nginx
x-custom:
  anything: goes
`
	_, diags, err := Parse([]byte(doc), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, diags.Count())
}

func TestParseWithOptionsWarnOnExtensionKeys(t *testing.T) {
	doc := `
x-custom:
  anything: goes
services:
  web:
    image: nginx
`
	_, diags, err := ParseWithOptions([]byte(doc), nil, Options{WarnOnExtensionKeys: true})
	require.NoError(t, err)
	assert.Greater(t, diags.Count(), 0)
}

func TestParseInvalidRootIsNotAMapping(t *testing.T) {
	doc := `- not a mapping`
	file, diags, err := Parse([]byte(doc), nil)
	require.Error(t, err)
	assert.Nil(t, file)
	assert.True(t, diags.HasErrors())
}

func TestParseMalformedYAML(t *testing.T) {
	doc := "services: [unterminated"
	file, diags, err := Parse([]byte(doc), nil)
	require.Error(t, err)
	assert.Nil(t, file)
	assert.True(t, diags.HasErrors())
}

func TestParseStopGracePeriodDefault(t *testing.T) {
	doc := `
services:
  web:
    image: nginx
`
	file, _, err := Parse([]byte(doc), nil)
	require.NoError(t, err)
	web, _ := file.Services.Get("web")
	assert.Equal(t, DefaultStopGracePeriod, web.StopGracePeriod)
}

func TestParseStopGracePeriodOverride(t *testing.T) {
	doc := `
services:
  web:
    image: nginx
    stop_grace_period: 1m30s
`
	file, diags, err := Parse([]byte(doc), nil)
	require.NoError(t, err)
	require.False(t, diags.HasErrors())
	web, _ := file.Services.Get("web")
	assert.Equal(t, time.Minute+30*time.Second, web.StopGracePeriod)
}

func TestParseMemLimitAndCPUs(t *testing.T) {
	doc := `
services:
  web:
    image: nginx
    mem_limit: 512m
    cpus: "1.5"
    pids_limit: 100
`
	file, diags, err := Parse([]byte(doc), nil)
	require.NoError(t, err)
	require.False(t, diags.HasErrors())
	web, _ := file.Services.Get("web")
	require.NotNil(t, web.MemLimit)
	assert.Equal(t, int64(512*1024*1024), *web.MemLimit)
	require.NotNil(t, web.CPUs)
	assert.Equal(t, 1.5, *web.CPUs)
	require.NotNil(t, web.PidsLimit)
	assert.Equal(t, int64(100), *web.PidsLimit)
}

func TestParseSysctlsAndDevices(t *testing.T) {
	doc := `
services:
  web:
    image: nginx
    devices:
      - "/dev/ttyUSB0:/dev/ttyUSB0"
    sysctls:
      net.core.somaxconn: "1024"
`
	file, diags, err := Parse([]byte(doc), nil)
	require.NoError(t, err)
	require.False(t, diags.HasErrors())
	web, _ := file.Services.Get("web")
	assert.Equal(t, []string{"/dev/ttyUSB0:/dev/ttyUSB0"}, web.Devices)
	v, ok := web.Sysctls.Get("net.core.somaxconn")
	require.True(t, ok)
	assert.Equal(t, "1024", v)
}

func TestParseLoggingBlock(t *testing.T) {
	doc := `
services:
  web:
    image: nginx
    logging:
      driver: json-file
      options:
        max-size: "10m"
`
	file, diags, err := Parse([]byte(doc), nil)
	require.NoError(t, err)
	require.False(t, diags.HasErrors())
	web, _ := file.Services.Get("web")
	require.NotNil(t, web.Logging)
	assert.Equal(t, "json-file", web.Logging.Driver)
	v, ok := web.Logging.Options.Get("max-size")
	require.True(t, ok)
	assert.Equal(t, "10m", v)
}

func TestFileReleaseIsIdempotent(t *testing.T) {
	doc := `
services:
  web:
    image: nginx
`
	file, _, err := Parse([]byte(doc), nil)
	require.NoError(t, err)
	file.Release()
	file.Release()
}

func TestDiagnosticsReleaseIsIdempotent(t *testing.T) {
	doc := `
services:
  web:
    image: nginx
    totally_unknown_key: 1
`
	_, diags, err := Parse([]byte(doc), nil)
	require.NoError(t, err)
	diags.Release()
	diags.Release()
}

func TestParseRestartPolicyStrictOptIn(t *testing.T) {
	doc := `
services:
  web:
    image: nginx
    restart: sometimes
`
	_, diags, err := ParseWithOptions([]byte(doc), nil, Options{StrictRestart: true})
	require.NoError(t, err)
	assert.Greater(t, diags.Count(), 0)

	_, diagsDefault, err := Parse([]byte(doc), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, diagsDefault.Count())
}

func TestParseDiagnosticBudgetDropsExcess(t *testing.T) {
	doc := `
services:
  web:
    image: nginx
    unknown_one: 1
    unknown_two: 2
    unknown_three: 3
`
	budget := 1
	_, diags, err := ParseWithOptions([]byte(doc), nil, Options{DiagnosticBudget: &budget})
	require.NoError(t, err)
	assert.Equal(t, 1, diags.Count())
	assert.Greater(t, diags.DroppedCount(), 0)
}
