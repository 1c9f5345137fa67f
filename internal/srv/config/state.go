package config

import (
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
	"io/ioutil"
	"sync"
	"time"
)

const saveDelay = 10 * time.Second

type ServerState struct {
	serverStateConfig     ServerStateConfig
	lock                  sync.RWMutex
	backupTimer           *time.Timer
	completeStateFilename string
}

// NewServerState reads the state file, or starts from the configured marquee when it doesn't exist yet
func NewServerState(completeStateFilename string, defaultMarquee MarqueeParam) *ServerState {
	serverState := &ServerState{
		completeStateFilename: completeStateFilename,
	}

	rawConfig, err := ioutil.ReadFile(completeStateFilename)
	if err == nil {
		// Interpret state file
		err = yaml.Unmarshal(rawConfig, &serverState.serverStateConfig)
		if err != nil {
			logrus.Fatalf("Unable to interpret state file: %v\n", err)
		}
	} else {
		// Create default state file
		logrus.Infof("Create default state file")
		serverState.SetMarqueeState(MarqueeState{Text: defaultMarquee.Text, Color: defaultMarquee.Color})
		serverState.SetDisplayOn(true)
	}

	return serverState
}

func (ss *ServerState) MarqueeState() MarqueeState {
	ss.lock.RLock()
	defer ss.lock.RUnlock()

	return ss.serverStateConfig.Marquee
}

func (ss *ServerState) SetMarqueeState(marquee MarqueeState) {
	ss.lock.Lock()
	defer ss.lock.Unlock()

	ss.serverStateConfig.Marquee = marquee
	ss.scheduleSave()
}

func (ss *ServerState) DisplayOn() bool {
	ss.lock.RLock()
	defer ss.lock.RUnlock()

	return !ss.serverStateConfig.DisplayOff
}

func (ss *ServerState) SetDisplayOn(on bool) {
	ss.lock.Lock()
	defer ss.lock.Unlock()

	ss.serverStateConfig.DisplayOff = !on
	ss.scheduleSave()
}

func (ss *ServerState) scheduleSave() {
	if ss.backupTimer == nil {
		ss.backupTimer = time.AfterFunc(saveDelay, func() {
			ss.lock.Lock()
			defer ss.lock.Unlock()
			ss.save()
		})
	} else {
		ss.backupTimer.Reset(saveDelay)
	}
}

func (ss *ServerState) save() {
	logrus.Infof("Save state file: %s", ss.completeStateFilename)
	rawConfig, err := yaml.Marshal(&ss.serverStateConfig)
	if err != nil {
		logrus.Errorf("Unable to serialize state file: %v", err)
		return
	}
	err = ioutil.WriteFile(ss.completeStateFilename, rawConfig, 0660)
	if err != nil {
		logrus.Errorf("Unable to save state file: %v", err)
	}
}

func (ss *ServerState) FlushSave() {
	ss.lock.Lock()
	defer ss.lock.Unlock()
	if ss.backupTimer != nil {
		if ss.backupTimer.Stop() {
			ss.save()
		}
	}
}

type ServerStateConfig struct {
	Marquee    MarqueeState `yaml:"marquee"`
	DisplayOff bool         `yaml:"display_off"`
}

type MarqueeState struct {
	Text  string `yaml:"text"`
	Color string `yaml:"color"`
}
