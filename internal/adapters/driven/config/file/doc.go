// Package file keeps user-editable state in the ragcore config directory
// (~/.ragcore or $RAGCORE_HOME): settings in config.toml and answer prompts
// as text files under prompts/.
package file
