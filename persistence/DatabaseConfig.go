package persistence

import (
	"database/sql"
	"errors"
	"os"
	"strings"
)

type DatabaseConfig struct {
	DriverType string
	DriverArgs string
}

// ParseDatabaseConfigFromEnv DATABASE_URL example:
//   mysql://root:root@(127.0.0.1:3306)/launchpad?charset=utf8mb4&parseTime=True&loc=Local
func ParseDatabaseConfigFromEnv() (*DatabaseConfig, error) {
	databaseURL := os.ExpandEnv(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		return nil, errors.New("environment variable DATABASE_URL is not set")
	}
	idx := strings.Index(databaseURL, "://")
	if idx <= 0 || idx == len(databaseURL)-3 {
		return nil, errors.New("invalid DATABASE_URL: " + databaseURL)
	}
	return &DatabaseConfig{DriverType: databaseURL[0:idx], DriverArgs: databaseURL[idx+3:]}, nil
}

// PrepareMysqlDatabase create the database of driverArgs when absent
func PrepareMysqlDatabase(driverArgs string) error {
	idxBegin := strings.Index(driverArgs, "/")
	if idxBegin < 0 {
		return errors.New("invalid mysql driver args")
	}
	idxEnd := strings.Index(driverArgs, "?")
	if idxEnd < 0 {
		idxEnd = len(driverArgs)
	}
	if idxEnd <= idxBegin {
		return errors.New("invalid mysql driver args")
	}
	databaseName := driverArgs[idxBegin+1 : idxEnd]

	db, err := sql.Open("mysql", driverArgs[0:idxBegin+1])
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Exec("CREATE DATABASE IF NOT EXISTS `" + databaseName + "` CHARACTER SET utf8mb4")
	return err
}
