package services

import "github.com/sirupsen/logrus"

var log logrus.FieldLogger = logrus.StandardLogger()

// SetLogger replaces the logger used by the services package
func SetLogger(l logrus.FieldLogger) {
	log = l
}
