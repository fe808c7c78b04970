// Package config loads oslock settings with viper.
//
// Settings live in $HOME/.oslock/config.yaml, which InitConfig creates from the defaults on
// first use. NewConfigFromViper reads the current viper state into a Config, and Apply pushes
// the library-wide policies (Time arithmetic, strict release) into their packages.
//
// Keys:
//
//	time.arithmetic_policy   reject | assert | saturate
//	lock.strict_release      panic when a reentrant lock is released by a non-owner
//	clock.ntp.enabled        correct the realtime clock from NTP
//	clock.ntp.servers        NTP servers, tried in order
//	clock.ntp.timeout        per-server query timeout
//	torture.workers          goroutines per stress run
//	torture.duration         length of a stress run
//	torture.depth            reentrant depth for the monotonic lock run
//	torture.rate             acquisitions per second per run, 0 for unlimited
//	torture.timeout          bound on each timed acquisition
//	log.level                debug | info | warn | error; the binary's logger only,
//	                         and DEBUG_OSLOCK overrides it
package config
