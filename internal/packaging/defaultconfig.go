package packaging

// GenerateDefaultConfig produces a minimal starter config.yaml for duplexd.
// The interface list is left commented out so a fresh install does not touch
// any device until an operator names the interfaces to manage.
func GenerateDefaultConfig() string {
	return `# duplexd configuration
# See documentation for all available options.

log_level: info
data_dir: /var/lib/duplexd
# target_prefix: ifb
# forwarding: managed
# parallel: false
# interfaces:
#   - name: eth0
#     role: wan
#   - name: eth1
#     role: lan
`
}
