package config

import (
	"golang.org/x/oauth2"
	"gopkg.in/yaml.v3"
	"io/ioutil"
	"time"
)

type tokenFile struct {
	AccessToken  string    `yaml:"access_token"`
	TokenType    string    `yaml:"token_type"`
	RefreshToken string    `yaml:"refresh_token"`
	Expiry       time.Time `yaml:"expiry"`
}

// LoadToken reads an oauth2 token saved by SaveToken
func LoadToken(filename string) (*oauth2.Token, error) {
	raw, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var tf tokenFile
	if err = yaml.Unmarshal(raw, &tf); err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken:  tf.AccessToken,
		TokenType:    tf.TokenType,
		RefreshToken: tf.RefreshToken,
		Expiry:       tf.Expiry,
	}, nil
}

func SaveToken(filename string, token *oauth2.Token) error {
	raw, err := yaml.Marshal(&tokenFile{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
	})
	if err != nil {
		return err
	}
	return ioutil.WriteFile(filename, raw, 0600)
}
