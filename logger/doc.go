// Package logger wraps zerolog with the structured-field conventions used
// across the authentication layer.
//
// Components take a *Logger and tag it with WithComponent:
//
//	log := logger.NewDefault("authclient").WithComponent("refresh")
//	log.Info("renewal settled", logger.Fields("waiters", 3))
package logger
